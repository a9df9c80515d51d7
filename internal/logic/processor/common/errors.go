package common

import (
	"errors"
	"fmt"

	"meteora-indexer-sol/internal/logic/core"
	"meteora-indexer-sol/internal/logic/layout"
	"meteora-indexer-sol/internal/logic/netflow"
	"meteora-indexer-sol/internal/metrics"
	"meteora-indexer-sol/internal/pkg/logger"
	"meteora-indexer-sol/internal/service"
	"meteora-indexer-sol/internal/store"
)

// 指令处理错误分类：
//   - UnknownInstruction      静默跳过
//   - DecodeFailure           debug 日志后跳过
//   - MissingRequiredAccount  error 日志（带字段名）后跳过
//   - InvalidFlowPattern      静默跳过
//   - PersistenceFailure      返回给调用方，中止批次
var (
	ErrUnknownInstruction     = layout.ErrUnknownInstruction
	ErrDecodeFailure          = layout.ErrDecode
	ErrMissingRequiredAccount = layout.ErrMissingAccount
	ErrInvalidFlowPattern     = netflow.ErrInvalidFlowPattern
	ErrPersistenceFailure     = store.ErrPersistence
)

// ErrHandlerPanic handler 内部 panic，已恢复
var ErrHandlerPanic = errors.New("handler panic")

// Outcome 将错误归类为指标中的处理结果
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrPersistenceFailure):
		return metrics.OutcomeFatal
	case errors.Is(err, ErrDecodeFailure):
		return metrics.OutcomeDecodeFailure
	case errors.Is(err, ErrMissingRequiredAccount):
		return metrics.OutcomeMissingAccount
	case errors.Is(err, ErrInvalidFlowPattern):
		return metrics.OutcomeInvalidFlow
	case errors.Is(err, service.ErrPoolNotFound):
		return metrics.OutcomePoolNotFound
	case errors.Is(err, ErrHandlerPanic):
		return metrics.OutcomePanic
	default:
		return metrics.OutcomeInvalidParams
	}
}

// HandleError 按分类记录日志，仅持久化失败向上返回
func HandleError(tag string, ix *core.Instruction, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrPersistenceFailure):
		logger.Errorf("[%s] 持久化失败: tx=%s, err=%v", tag, ix.TxID(), err)
		return err
	case errors.Is(err, ErrUnknownInstruction), errors.Is(err, ErrInvalidFlowPattern):
		return nil
	case errors.Is(err, ErrHandlerPanic):
		// Recover 中已记录
		return nil
	case errors.Is(err, ErrDecodeFailure):
		logger.Debugf("[%s] 指令解码失败: tx=%s, ix=%d, inner=%d, err=%v",
			tag, ix.TxID(), ix.IxIndex, ix.InnerIndex, err)
		return nil
	case errors.Is(err, ErrMissingRequiredAccount):
		var missing *layout.MissingAccountError
		field := "?"
		if errors.As(err, &missing) {
			field = missing.Field
		}
		logger.Errorf("[%s] 缺少必需账户: field=%s, accounts=%d, tx=%s",
			tag, field, len(ix.Accounts), ix.TxID())
		return nil
	case errors.Is(err, service.ErrPoolNotFound):
		logger.Warnf("[%s] 池子不存在，跳过: tx=%s, err=%v", tag, ix.TxID(), err)
		return nil
	default:
		logger.Errorf("[%s] 处理失败: tx=%s, ix=%d, err=%v", tag, ix.TxID(), ix.IxIndex, err)
		return nil
	}
}

// Recover 捕获 handler panic，转换为 ErrHandlerPanic
func Recover(tag string, ix *core.Instruction, err *error) {
	if r := recover(); r != nil {
		logger.Errorf("[%s] panic: tx=%s, ix=%d, inner=%d, recover=%v", tag, ix.TxID(), ix.IxIndex, ix.InnerIndex, r)
		*err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
	}
}
