package progress

// SlotStatus slot 的处理状态（Redis 与 DB 统一编码）
type SlotStatus int

const (
	SlotUnknown   SlotStatus = 0 // Redis 不存在
	SlotProcessed SlotStatus = 1 // 已处理并落库
	SlotInvalid   SlotStatus = 2 // 结构错误或落库失败，已跳过
	SlotPending   SlotStatus = 3 // 处理中（仅 Redis 使用）
)

func (s SlotStatus) String() string {
	switch s {
	case SlotProcessed:
		return "processed"
	case SlotInvalid:
		return "invalid"
	case SlotPending:
		return "pending"
	default:
		return "unknown"
	}
}

// 区块来源
const (
	SourceUnknown int16 = 0
	SourceGrpc    int16 = 1
	SourceRpc     int16 = 2
)

func SourceName(src int16) string {
	switch src {
	case SourceGrpc:
		return "grpc"
	case SourceRpc:
		return "rpc"
	default:
		return "unknown"
	}
}

// SlotRecord 一条待写入 progress_slot 的记录
type SlotRecord struct {
	Slot      uint64
	Source    int16
	BlockTime int64 // Unix 秒
	Status    SlotStatus
}
