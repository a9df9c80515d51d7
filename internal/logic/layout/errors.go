package layout

import (
	"errors"
	"fmt"
)

var (
	ErrDecode         = errors.New("instruction decode failed")
	ErrMissingAccount = errors.New("required account missing")
)

// DecodeError 指令数据与布局不匹配
type DecodeError struct {
	Kind   Kind
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Kind, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// MissingAccountError 必需的具名账户缺失或为空
type MissingAccountError struct {
	Field string
}

func (e *MissingAccountError) Error() string {
	return fmt.Sprintf("missing account: %s", e.Field)
}

func (e *MissingAccountError) Unwrap() error {
	return ErrMissingAccount
}

// ErrUnknownInstruction 未识别的指令，调用方应静默跳过
var ErrUnknownInstruction = errors.New("unknown instruction")
