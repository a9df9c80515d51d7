package txadapter

import (
	"errors"
	"fmt"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

var (
	ErrNilTx          = errors.New("nil transaction info")
	ErrMissingMessage = errors.New("missing transaction message")
	ErrBadSignature   = errors.New("invalid transaction signature")
	ErrVoteTx         = errors.New("vote transaction skipped")
	ErrMissingMeta    = errors.New("missing transaction meta")
	ErrFailedTx       = errors.New("transaction execution failed")
)

// ValidateGrpcTx 过滤无需处理的交易：结构缺失、投票交易、执行失败的交易
func ValidateGrpcTx(tx *pb.SubscribeUpdateTransactionInfo) error {
	switch {
	case tx == nil:
		return ErrNilTx
	case tx.Transaction == nil || tx.Transaction.Message == nil:
		return ErrMissingMessage
	case len(tx.Transaction.Signatures) == 0:
		return ErrBadSignature
	case len(tx.Transaction.Signatures[0]) != 64:
		return fmt.Errorf("%w: length %d", ErrBadSignature, len(tx.Transaction.Signatures[0]))
	case tx.IsVote:
		return ErrVoteTx
	case tx.Meta == nil:
		return ErrMissingMeta
	case tx.Meta.Err != nil:
		return ErrFailedTx
	}
	return nil
}

// IsValidGrpcTx 同 ValidateGrpcTx，仅返回是否有效
func IsValidGrpcTx(tx *pb.SubscribeUpdateTransactionInfo) bool {
	return ValidateGrpcTx(tx) == nil
}
