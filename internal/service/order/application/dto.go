// internal/service/order/application/dto.go
package application

import (
	"fmt"
	"time"

	"figurestore/internal/service/order/domain"
)

// FigureDTO 是接口层传入的图形描述。只有与 Type 对应的尺寸字段会被读取。
type FigureDTO struct {
	Type   string   `json:"type"`
	A      *float64 `json:"a,omitempty"`
	B      *float64 `json:"b,omitempty"`
	C      *float64 `json:"c,omitempty"`
	Side   *float64 `json:"side,omitempty"`
	Radius *float64 `json:"radius,omitempty"`
}

// PositionDTO 是购物车中的一行。
type PositionDTO struct {
	Figure FigureDTO `json:"figure"`
	Count  int       `json:"count"`
}

// PlaceOrderRequest 是下单用例的输入数据
type PlaceOrderRequest struct {
	Positions []PositionDTO `json:"positions"`
}

// PlaceOrderResponse 是下单用例的输出数据
type PlaceOrderResponse struct {
	OrderID string       `json:"orderId"`
	Total   string       `json:"total"`
	State   domain.State `json:"state"`
}

// ToCart 把请求转换为领域购物车。结构性缺失（未知类型、缺少尺寸）报告为 InvalidFigure，
// 几何规则留给 domain.Validate。
func (req *PlaceOrderRequest) ToCart() (domain.Cart, error) {
	positions := make([]domain.Position, 0, len(req.Positions))
	for i, p := range req.Positions {
		f, err := p.Figure.toFigure()
		if err != nil {
			return domain.Cart{}, fmt.Errorf("position %d: %w", i, err)
		}
		positions = append(positions, domain.Position{Figure: f, Count: p.Count})
	}
	return domain.Cart{Positions: positions}, nil
}

func (d FigureDTO) toFigure() (domain.Figure, error) {
	switch domain.Kind(d.Type) {
	case domain.KindTriangle:
		if d.A == nil || d.B == nil || d.C == nil {
			return nil, &domain.InvalidFigureError{Kind: domain.KindTriangle, Reason: "sides a, b and c are required"}
		}
		return domain.Triangle{A: *d.A, B: *d.B, C: *d.C}, nil
	case domain.KindSquare:
		if d.Side == nil {
			return nil, &domain.InvalidFigureError{Kind: domain.KindSquare, Reason: "side is required"}
		}
		return domain.Square{Side: *d.Side}, nil
	case domain.KindCircle:
		if d.Radius == nil {
			return nil, &domain.InvalidFigureError{Kind: domain.KindCircle, Reason: "radius is required"}
		}
		return domain.Circle{Radius: *d.Radius}, nil
	default:
		return nil, &domain.InvalidFigureError{Reason: fmt.Sprintf("unknown figure type %q", d.Type)}
	}
}

// NewPlaceOrderResponse 从下单结果构建响应
func NewPlaceOrderResponse(r *Receipt) *PlaceOrderResponse {
	return &PlaceOrderResponse{OrderID: r.OrderID, Total: r.Total.String(), State: r.State}
}

// OrderResponse 是订单查询的输出数据
type OrderResponse struct {
	OrderID   string       `json:"orderId"`
	Total     string       `json:"total"`
	State     domain.State `json:"state"`
	Figures   []FigureDTO  `json:"figures"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewOrderResponse 从已存储的订单构建响应
func NewOrderResponse(o *domain.Order) *OrderResponse {
	figures := make([]FigureDTO, 0, len(o.Figures))
	for _, f := range o.Figures {
		figures = append(figures, fromFigure(f))
	}
	return &OrderResponse{
		OrderID:   o.ID,
		Total:     o.Total.String(),
		State:     o.State,
		Figures:   figures,
		CreatedAt: o.CreatedAt,
	}
}

func fromFigure(f domain.Figure) FigureDTO {
	switch v := f.(type) {
	case domain.Triangle:
		return FigureDTO{Type: string(domain.KindTriangle), A: &v.A, B: &v.B, C: &v.C}
	case domain.Square:
		return FigureDTO{Type: string(domain.KindSquare), Side: &v.Side}
	case domain.Circle:
		return FigureDTO{Type: string(domain.KindCircle), Radius: &v.Radius}
	default:
		return FigureDTO{Type: string(f.Kind())}
	}
}
