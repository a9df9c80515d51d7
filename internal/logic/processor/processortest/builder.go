// Package processortest 构造处理器测试所需的交易、指令与内存环境
package processortest

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"regexp"
	"strings"

	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/processor/common"
	"meteora-indexer-sol/internal/service"
	"meteora-indexer-sol/internal/store"
	"meteora-indexer-sol/internal/types"

	"github.com/near/borsh-go"
)

// Env 内存持久层 + UnitOfWork + 服务 + 批次上下文
type Env struct {
	Durable  store.DurableStore
	UOW      *store.UnitOfWork
	Services *service.Services
	Ctx      *common.Context
}

func NewEnv() *Env {
	return NewEnvWith(store.NewMemoryStore())
}

func NewEnvWith(durable store.DurableStore) *Env {
	uow := store.NewUnitOfWork(durable)
	services := service.New(uow)
	return &Env{
		Durable:  durable,
		UOW:      uow,
		Services: services,
		Ctx:      common.NewContext(services, nil),
	}
}

// Key 生成非零且互不相同的测试地址
func Key(b byte) types.Pubkey {
	return types.Pubkey{b, 0xA5}
}

var camel = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// Data kind 的 discriminator + 参数。[]byte 参数原样追加，其余按 borsh 序列化。
func Data(kind layout.Kind, args ...any) []byte {
	name := kind.String()
	name = name[strings.IndexByte(name, '.')+1:]
	sum := sha256.Sum256([]byte("global:" + strings.ToLower(camel.ReplaceAllString(name, "${1}_${2}"))))
	data := append([]byte{}, sum[:8]...)
	for _, arg := range args {
		if raw, ok := arg.([]byte); ok {
			data = append(data, raw...)
			continue
		}
		b, err := borsh.Serialize(arg)
		if err != nil {
			panic(fmt.Sprintf("borsh serialize %T: %v", arg, err))
		}
		data = append(data, b...)
	}
	return data
}

// Accounts 按 kind 的账户表生成账户列表；未指定的位置填充占位地址
func Accounts(kind layout.Kind, named map[string]types.Pubkey) []types.Pubkey {
	names := layout.AccountNames(kind)
	list := make([]types.Pubkey, len(names))
	for i, name := range names {
		if pk, ok := named[name]; ok {
			list[i] = pk
			continue
		}
		list[i] = types.Pubkey{0xEE, byte(i), 0x01}
	}
	return list
}

// Transfer SPL Token Transfer（opcode 3）
func Transfer(src, dst, authority types.Pubkey, amount uint64) *core.AdaptedInstruction {
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], amount)
	return &core.AdaptedInstruction{
		ProgramID: consts.TokenProgram,
		Accounts:  []types.Pubkey{src, dst, authority},
		Data:      data,
	}
}

// TransferChecked SPL Token TransferChecked（opcode 12）
func TransferChecked(src, mint, dst, authority types.Pubkey, amount uint64, decimals uint8) *core.AdaptedInstruction {
	data := make([]byte, 10)
	data[0] = 12
	binary.LittleEndian.PutUint64(data[1:], amount)
	data[9] = decimals
	return &core.AdaptedInstruction{
		ProgramID: consts.TokenProgram,
		Accounts:  []types.Pubkey{src, mint, dst, authority},
		Data:      data,
	}
}

// CreateAccount System Program CreateAccount
func CreateAccount(funder, account, owner types.Pubkey, lamports, space uint64) *core.AdaptedInstruction {
	data := make([]byte, 52)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], space)
	copy(data[20:], owner[:])
	return &core.AdaptedInstruction{
		ProgramID: consts.SystemProgram,
		Accounts:  []types.Pubkey{funder, account},
		Data:      data,
	}
}

// NewTx 以 seed 生成签名的空交易
func NewTx(seed byte, blockTime int64) *core.AdaptedTx {
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = seed
	}
	return &core.AdaptedTx{
		TxCtx:     &core.TxContext{BlockTime: blockTime, Slot: uint64(blockTime)},
		Signature: sig,
		Balances:  make(map[types.Pubkey]*core.TokenBalance),
	}
}

// Instruction 向 tx 追加一条外层指令及其 inner，返回待处理的 core.Instruction
func Instruction(tx *core.AdaptedTx, program types.Pubkey, accounts []types.Pubkey, data []byte, inners ...*core.AdaptedInstruction) *core.Instruction {
	ixIndex := uint16(0)
	if n := len(tx.Instructions); n > 0 {
		ixIndex = tx.Instructions[n-1].IxIndex + 1
	}
	outer := &core.AdaptedInstruction{
		IxIndex:     ixIndex,
		StackHeight: 1,
		ProgramID:   program,
		Accounts:    accounts,
		Data:        data,
	}
	tx.Instructions = append(tx.Instructions, outer)
	for i, inner := range inners {
		inner.IxIndex = ixIndex
		inner.InnerIndex = uint16(i + 1)
		inner.StackHeight = 2
		tx.Instructions = append(tx.Instructions, inner)
	}
	return &core.Instruction{AdaptedInstruction: outer, Inners: inners, Tx: tx}
}
