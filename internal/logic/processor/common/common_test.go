package common

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/netflow"
	"meteora-indexer-sol/internal/metrics"
	"meteora-indexer-sol/internal/model"
	"meteora-indexer-sol/internal/service"
	"meteora-indexer-sol/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapIndexer(t *testing.T) {
	s := &SwapIndexer{}
	assert.Equal(t, 0, s.Next("a"))
	assert.Equal(t, 1, s.Next("a"))
	assert.Equal(t, 2, s.Next("a"))
	assert.Equal(t, 0, s.Next("b"))
	assert.Equal(t, 1, s.Next("b"))

	s.Reset()
	assert.Equal(t, 0, s.Next("b"))
}

func flow(x, y int64) netflow.Flow {
	f := netflow.Flow{DepositX: new(big.Int), DepositY: new(big.Int), WithdrawX: new(big.Int), WithdrawY: new(big.Int)}
	f.NetX, f.NetY = big.NewInt(x), big.NewInt(y)
	return f
}

func TestApplyFlow(t *testing.T) {
	pool := &model.BasePool{ReserveX: big.NewInt(100), ReserveY: big.NewInt(100)}

	out, err := ApplyFlow(pool, Policy{Effect: netflow.EffectSwap}, flow(10, -9))
	require.NoError(t, err)
	assert.True(t, out.XToY)
	assert.Equal(t, int64(110), pool.ReserveX.Int64())
	assert.Equal(t, int64(91), pool.ReserveY.Int64())

	// 拒绝时储备不变
	_, err = ApplyFlow(pool, Policy{Effect: netflow.EffectSwap}, flow(10, 10))
	assert.ErrorIs(t, err, ErrInvalidFlowPattern)
	assert.Equal(t, int64(110), pool.ReserveX.Int64())

	// 非空池拒绝 bootstrap
	_, err = ApplyFlow(pool, Policy{Effect: netflow.EffectBootstrap}, flow(10, 10))
	assert.ErrorIs(t, err, ErrInvalidFlowPattern)
}

func TestSignedLpAndClamp(t *testing.T) {
	assert.Equal(t, int64(5), SignedLp(Policy{LpSign: 1}, 5).Int64())
	assert.Equal(t, int64(-5), SignedLp(Policy{LpSign: -1}, 5).Int64())
	assert.Equal(t, int64(0), SignedLp(Policy{}, 5).Int64())

	assert.Equal(t, int64(0), AddClamped(big.NewInt(3), big.NewInt(-5)).Int64())
	assert.Equal(t, int64(2), AddClamped(nil, big.NewInt(2)).Int64())
}

func TestOutcomeAndHandleError(t *testing.T) {
	ix := &core.Instruction{AdaptedInstruction: &core.AdaptedInstruction{}, Tx: &core.AdaptedTx{Signature: []byte{1}}}

	cases := []struct {
		err     error
		outcome string
		fatal   bool
	}{
		{nil, metrics.OutcomeOK, false},
		{&layout.DecodeError{Kind: layout.DammSwap, Reason: "short"}, metrics.OutcomeDecodeFailure, false},
		{&layout.MissingAccountError{Field: "pool"}, metrics.OutcomeMissingAccount, false},
		{netflow.ErrInvalidFlowPattern, metrics.OutcomeInvalidFlow, false},
		{fmt.Errorf("wrap: %w", service.ErrPoolNotFound), metrics.OutcomePoolNotFound, false},
		{fmt.Errorf("%w: boom", ErrHandlerPanic), metrics.OutcomePanic, false},
		{fmt.Errorf("%w: disk", store.ErrPersistence), metrics.OutcomeFatal, true},
		{errors.New("other"), metrics.OutcomeInvalidParams, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.outcome, Outcome(c.err))
		err := HandleError("Test", ix, c.err)
		if c.fatal {
			assert.ErrorIs(t, err, store.ErrPersistence)
		} else {
			assert.NoError(t, err)
		}
	}
}

func TestRecover(t *testing.T) {
	ix := &core.Instruction{AdaptedInstruction: &core.AdaptedInstruction{}, Tx: &core.AdaptedTx{}}
	run := func() (err error) {
		defer Recover("Test", ix, &err)
		var m map[string]int
		m["x"] = 1
		return nil
	}
	assert.ErrorIs(t, run(), ErrHandlerPanic)
}
