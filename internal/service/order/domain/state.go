// internal/service/order/domain/state.go
package domain

// State 定义了一次订单尝试的生命周期状态
type State string

const (
	StateValidating State = "VALIDATING" // 校验购物车中的图形和数量
	StateReserving  State = "RESERVING"  // 逐个位置预占库存
	StatePersisting State = "PERSISTING" // 订单已构建，等待仓储确认
	StateCommitted  State = "COMMITTED"  // 订单已保存
	StateRejected   State = "REJECTED"   // 订单失败，已预占的库存已释放（或补偿失败）
)
