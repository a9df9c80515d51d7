package service

import "errors"

var (
	// ErrInvalidParams 参数校验失败，未触达存储
	ErrInvalidParams = errors.New("invalid params")
	// ErrPoolNotFound 池子不存在（未见过建池指令）
	ErrPoolNotFound = errors.New("pool not found")
)
