package transfer

import (
	"encoding/binary"
	"testing"

	"meteora-indexer-sol/internal/consts"
	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pk(b byte) types.Pubkey {
	return types.Pubkey{b}
}

func transferData(amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

func transferCheckedData(amount uint64, decimals uint8) []byte {
	data := make([]byte, 10)
	data[0] = 12
	binary.LittleEndian.PutUint64(data[1:], amount)
	data[9] = decimals
	return data
}

func createAccountData(lamports, space uint64, owner types.Pubkey) []byte {
	data := make([]byte, 52)
	binary.LittleEndian.PutUint32(data[0:4], 0)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], space)
	copy(data[20:], owner[:])
	return data
}

func buildInstruction() *core.Instruction {
	mintA := pk(100)
	tx := &core.AdaptedTx{
		TxCtx: &core.TxContext{BlockTime: 1700000000},
		Balances: map[types.Pubkey]*core.TokenBalance{
			pk(1): {TokenAccount: pk(1), Token: mintA, Decimals: 6},
		},
	}
	ix := &core.Instruction{
		AdaptedInstruction: &core.AdaptedInstruction{IxIndex: 0, ProgramID: consts.MeteoraDLMMProgram},
		Tx:                 tx,
		Inners: []*core.AdaptedInstruction{
			{IxIndex: 0, InnerIndex: 1, ProgramID: consts.TokenProgram, Accounts: []types.Pubkey{pk(1), pk(2), pk(9)}, Data: transferData(500)},
			{IxIndex: 0, InnerIndex: 2, ProgramID: consts.TokenProgram2022, Accounts: []types.Pubkey{pk(3), pk(101), pk(4), pk(9)}, Data: transferCheckedData(70, 9)},
			// 非 token 程序的同构数据应被忽略
			{IxIndex: 0, InnerIndex: 3, ProgramID: pk(77), Accounts: []types.Pubkey{pk(1), pk(2), pk(9)}, Data: transferData(1)},
			{IxIndex: 0, InnerIndex: 4, ProgramID: consts.SystemProgram, Accounts: []types.Pubkey{pk(9), pk(5)}, Data: createAccountData(2039280, 165, consts.TokenProgram)},
			{IxIndex: 0, InnerIndex: 5, ProgramID: consts.TokenProgram, Accounts: []types.Pubkey{pk(2), pk(1), pk(8)}, Data: transferData(20)},
		},
	}
	return ix
}

func TestExtractTransfers(t *testing.T) {
	ix := buildInstruction()
	list := ExtractTransfers(ix)
	require.Len(t, list, 2)

	first := list[0]
	assert.Equal(t, pk(1), first.Source)
	assert.Equal(t, pk(2), first.Destination)
	assert.Equal(t, pk(9), first.Authority)
	assert.Equal(t, uint64(500), first.Amount)
	assert.Equal(t, pk(100), first.Mint)
	assert.Equal(t, uint8(6), first.Decimals)
	assert.False(t, first.Checked)

	// 目标账户在快照中时也能补全 mint
	assert.Equal(t, pk(100), list[1].Mint)
	assert.Equal(t, uint16(5), list[1].InnerIndex)
}

func TestExtractTransfersChecked(t *testing.T) {
	list := ExtractTransfersChecked(buildInstruction())
	require.Len(t, list, 1)
	assert.Equal(t, pk(3), list[0].Source)
	assert.Equal(t, pk(4), list[0].Destination)
	assert.Equal(t, pk(101), list[0].Mint)
	assert.Equal(t, uint8(9), list[0].Decimals)
	assert.Equal(t, uint64(70), list[0].Amount)
	assert.True(t, list[0].Checked)
}

func TestExtractAll_PreservesOrder(t *testing.T) {
	list := ExtractAll(buildInstruction())
	require.Len(t, list, 3)
	assert.Equal(t, uint16(1), list[0].InnerIndex)
	assert.Equal(t, uint16(2), list[1].InnerIndex)
	assert.Equal(t, uint16(5), list[2].InnerIndex)
}

func TestExtractCreateAccounts(t *testing.T) {
	list := ExtractCreateAccounts(buildInstruction())
	require.Len(t, list, 1)
	ca := list[0]
	assert.Equal(t, pk(9), ca.Source)
	assert.Equal(t, pk(5), ca.NewAccount)
	assert.Equal(t, uint64(2039280), ca.Lamports)
	assert.Equal(t, uint64(165), ca.Space)
	assert.Equal(t, consts.TokenProgram, ca.Owner)
	assert.True(t, Created(list, pk(5)))
	assert.False(t, Created(list, pk(6)))
}

func TestSums(t *testing.T) {
	list := ExtractTransfers(buildInstruction())
	assert.Equal(t, uint64(500), SumInto(list, pk(2)))
	assert.Equal(t, uint64(20), SumOutOf(list, pk(2)))
	assert.Equal(t, uint64(0), SumInto(list, pk(7)))
}

func TestExtract_NoInners(t *testing.T) {
	ix := &core.Instruction{AdaptedInstruction: &core.AdaptedInstruction{}, Tx: &core.AdaptedTx{}}
	assert.Empty(t, ExtractTransfers(ix))
	assert.Empty(t, ExtractTransfersChecked(ix))
	assert.Empty(t, ExtractCreateAccounts(ix))
}
