// internal/service/order/domain/cart.go
package domain

// Position 是购物车中的一行：一个图形和购买数量。
type Position struct {
	Figure Figure
	Count  int
}

// Cart 是一次下单请求提交的有序位置列表，不做持久化。
type Cart struct {
	Positions []Position
}

// Ticket 记录一次订单尝试中已经扣减（或可能已经扣减）的库存，仅用于补偿。
// Uncertain 表示预占调用失败但无法确认存储端是否已执行。
type Ticket struct {
	TypeKey   string `json:"typeKey"`
	Quantity  int64  `json:"quantity"`
	Uncertain bool   `json:"uncertain,omitempty"`
}

// ValidateCart 校验整个购物车，遇到第一个错误即返回。
func ValidateCart(cart Cart) error {
	if len(cart.Positions) == 0 {
		return ErrEmptyCart
	}
	for i, p := range cart.Positions {
		if p.Count <= 0 {
			return &InvalidPositionError{Index: i, Count: p.Count}
		}
		if err := Validate(p.Figure); err != nil {
			return err
		}
	}
	return nil
}
