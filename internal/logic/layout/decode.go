package layout

import (
	"fmt"

	"meteora-indexer-sol/internal/types"
)

// Decoded 是一条已识别指令的具名账户与类型化参数
type Decoded struct {
	Kind     Kind
	Accounts NamedAccounts
	Data     any
}

// Decode 将原始账户与指令数据按 kind 的布局解码。
// 数据格式不符返回 *DecodeError；账户不足不在此报错，由调用方通过 Accounts.Require 校验。
func Decode(kind Kind, accounts []types.Pubkey, data []byte) (d *Decoded, err error) {
	if kind == KindUnhandled || kind >= kindCount {
		return nil, ErrUnknownInstruction
	}
	if len(data) < 8 {
		return nil, &DecodeError{Kind: kind, Reason: "data shorter than discriminator"}
	}

	defer func() {
		if r := recover(); r != nil {
			d, err = nil, &DecodeError{Kind: kind, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	var args any
	switch kind.Program() {
	case ProgramDAMM:
		args, err = decodeDammArgs(kind, data[8:])
	case ProgramDLMM:
		args, err = decodeDlmmArgs(kind, data[8:])
	default:
		err = ErrUnknownInstruction
	}
	if err != nil {
		return nil, err
	}

	return &Decoded{
		Kind:     kind,
		Accounts: bindAccounts(kind, accounts),
		Data:     args,
	}, nil
}
