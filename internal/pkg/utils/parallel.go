package utils

import (
	"context"

	"github.com/alitto/pond/v2"
)

// ParallelMap 并发地对 items 逐个执行 fn，结果顺序与输入一致。
// workers <= 1 或只有一个元素时直接串行执行。
// fn 必须是纯函数（不共享可变状态），ctx 取消后尚未开始的任务不再执行，对应结果保持零值。
func ParallelMap[T any, R any](ctx context.Context, items []T, workers int, fn func(T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 1 || len(items) == 1 {
		for i, item := range items {
			results[i] = fn(item)
		}
		return results
	}

	pool := pond.NewPool(min(workers, len(items)))
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for i := range items {
		group.Submit(func() {
			if groupCtx.Err() != nil {
				return
			}
			// 每个任务只写自己的下标，无需加锁
			results[i] = fn(items[i])
		})
	}
	// 任务本身不返回错误，Wait 只会因 ctx 取消而失败
	_ = group.Wait()
	return results
}
