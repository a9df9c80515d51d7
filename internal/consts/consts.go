package consts

import "runtime"

// CpuCount 表示逻辑 CPU 核心数，用于控制并发任务调度上限
var CpuCount = runtime.NumCPU()

// 常用 Token 精度
const (
	WSOLDecimals = 9
	USDCDecimals = 6
	USDTDecimals = 6
)
