package mq

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"meteora-indexer-sol/internal/model"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeEvent 将 protobuf 消息编码为带事件类型前缀的二进制数据：
//   - 前 4 字节为事件类型（uint32，小端序，取值为实体所在表的枚举值）
//   - 后续为 protobuf 序列化数据
func EncodeEvent(eventType uint32, msg proto.Message) ([]byte, error) {
	const extraBuffer = 32

	size := proto.Size(msg)
	buf := make([]byte, 4, 4+size+extraBuffer)
	binary.LittleEndian.PutUint32(buf[:4], eventType)

	opts := proto.MarshalOptions{Deterministic: true}
	result, err := opts.MarshalAppend(buf, msg)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: marshal %T: %w", msg, err)
	}
	return result, nil
}

// DecodeEvent EncodeEvent 的逆过程，供消费端与测试使用
func DecodeEvent(data []byte) (uint32, *structpb.Struct, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("DecodeEvent: payload too short (%d bytes)", len(data))
	}
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data[4:], msg); err != nil {
		return 0, nil, fmt.Errorf("DecodeEvent: %w", err)
	}
	return binary.LittleEndian.Uint32(data[:4]), msg, nil
}

func bigStr(v *big.Int) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func unix(t time.Time) any {
	return t.Unix()
}

// entityFields 事件实体 → 消息字段；大数以十进制字符串传输。不支持的实体返回 false。
func entityFields(e model.Entity) (map[string]any, string, bool) {
	switch v := e.(type) {
	case *model.DammSwap:
		return map[string]any{
			"id": v.ID, "dex": "damm", "pool": v.PoolID, "user": v.UserAddress,
			"tokenIn": v.TokenInMint, "tokenOut": v.TokenOutMint,
			"amountIn": bigStr(v.AmountIn), "amountOut": bigStr(v.AmountOut),
			"timestamp": unix(v.Timestamp),
		}, v.PoolID, true
	case *model.DlmmSwap:
		fields := map[string]any{
			"id": v.ID, "dex": "dlmm", "pool": v.PoolID, "user": v.UserAddress,
			"tokenIn": v.TokenInMint, "tokenOut": v.TokenOutMint,
			"tokenInAccount": v.TokenInAddress, "tokenOutAccount": v.TokenOutAddress,
			"amountIn": bigStr(v.AmountIn), "amountOut": bigStr(v.AmountOut),
			"timestamp": unix(v.Timestamp), "priceImpactBps": nil,
		}
		if v.PriceImpactBps != nil {
			fields["priceImpactBps"] = int64(*v.PriceImpactBps)
		}
		return fields, v.PoolID, true
	case *model.DammLiquidityChange:
		return map[string]any{
			"id": v.ID, "dex": "damm", "pool": v.PoolID, "position": v.PositionID,
			"type": string(v.Type),
			"amountX": bigStr(v.TokenXAmount), "amountY": bigStr(v.TokenYAmount),
			"lpAmount": bigStr(v.LpTokenAmount), "timestamp": unix(v.Timestamp),
		}, v.PoolID, true
	case *model.DlmmLiquidityChange:
		return map[string]any{
			"id": v.ID, "dex": "dlmm", "pool": v.PoolID, "position": v.PositionID,
			"type": string(v.Type),
			"amountX": bigStr(v.TokenXAmount), "amountY": bigStr(v.TokenYAmount),
			"timestamp": unix(v.Timestamp),
		}, v.PoolID, true
	case *model.DammFee:
		return map[string]any{
			"id": v.ID, "dex": "damm", "pool": v.PoolID, "owner": v.Owner,
			"amountX": bigStr(v.TokenXAmount), "amountY": bigStr(v.TokenYAmount),
			"timestamp": unix(v.Timestamp),
		}, v.PoolID, true
	case *model.DlmmFee:
		return map[string]any{
			"id": v.ID, "dex": "dlmm", "pool": v.PoolID, "position": v.Position,
			"user": v.User, "type": string(v.Type),
			"amountX": bigStr(v.AmountX), "amountY": bigStr(v.AmountY),
			"timestamp": unix(v.Timestamp),
		}, v.PoolID, true
	}
	return nil, "", false
}

// EncodeEntity 将事件实体编码为 Kafka 消息体，返回池子地址用于分区
func EncodeEntity(e model.Entity) ([]byte, string, error) {
	fields, pool, ok := entityFields(e)
	if !ok {
		return nil, "", fmt.Errorf("EncodeEntity: unsupported entity %T", e)
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, "", fmt.Errorf("EncodeEntity: %w", err)
	}
	data, err := EncodeEvent(uint32(e.EntityTable()), msg)
	if err != nil {
		return nil, "", err
	}
	return data, pool, nil
}
