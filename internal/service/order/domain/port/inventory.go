package port

import "context"

// StockStore 是库存计数服务的出站端口。
// 每个类型键上的原子性由后端存储保证，调用方不做任何本地加锁或缓存。
//
// 每次预占都记在 attemptID 名下，存储为该尝试维护一份已扣减数量的台账。
// 这样当预占结果不确定（例如脚本已执行但应答超时）时，调用方依然可以安全地调用 Release。
type StockStore interface {
	// ReserveAtomic 在一次往返中检查并扣减库存，并把数量记入该尝试的台账。
	// 数量超过当前可用量时库存保持不变，返回 *domain.OutOfStockError。
	ReserveAtomic(ctx context.Context, attemptID, typeKey string, quantity int64) (remaining int64, err error)

	// Release 是 ReserveAtomic 的补偿操作。它最多归还 quantity，且不超过台账中该尝试仍持有的数量，
	// 因此对从未真正扣减的预占是空操作，重复调用也不会多归还。
	Release(ctx context.Context, attemptID, typeKey string, quantity int64) error
}

// StockInspector 提供只读的库存查询，供运维接口使用，不参与预占流程。
type StockInspector interface {
	Available(ctx context.Context, typeKey string) (int64, error)
}
