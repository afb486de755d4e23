package infrastructure

import (
	"encoding/json"
	"fmt"

	"figurestore/internal/service/order/domain"
)

// figureRecord 是图形在数据库中的存储形式，Dims 的含义取决于 Kind。
type figureRecord struct {
	Kind domain.Kind `json:"kind"`
	Dims []float64   `json:"dims"`
}

// FromDomainOrder 将领域模型转换为数据库模型 (用于插入)
func FromDomainOrder(order *domain.Order) (*FigureOrderModel, error) {
	records := make([]figureRecord, 0, len(order.Figures))
	for _, f := range order.Figures {
		switch v := f.(type) {
		case domain.Triangle:
			records = append(records, figureRecord{Kind: domain.KindTriangle, Dims: []float64{v.A, v.B, v.C}})
		case domain.Square:
			records = append(records, figureRecord{Kind: domain.KindSquare, Dims: []float64{v.Side}})
		case domain.Circle:
			records = append(records, figureRecord{Kind: domain.KindCircle, Dims: []float64{v.Radius}})
		default:
			return nil, fmt.Errorf("unsupported figure %T", f)
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	return &FigureOrderModel{
		OrderKey: order.ID,
		Total:    order.Total,
		Figures:  string(data),
	}, nil
}

// ToDomainOrder 将数据库模型转换为领域模型
func ToDomainOrder(model *FigureOrderModel) (*domain.Order, error) {
	var records []figureRecord
	if err := json.Unmarshal([]byte(model.Figures), &records); err != nil {
		return nil, fmt.Errorf("decode figures of order %s: %w", model.OrderKey, err)
	}

	figures := make([]domain.Figure, 0, len(records))
	for _, r := range records {
		f, err := r.toFigure()
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", model.OrderKey, err)
		}
		figures = append(figures, f)
	}

	return &domain.Order{
		ID:        model.OrderKey,
		Figures:   figures,
		Total:     model.Total,
		State:     domain.StateCommitted,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

func (r figureRecord) toFigure() (domain.Figure, error) {
	switch {
	case r.Kind == domain.KindTriangle && len(r.Dims) == 3:
		return domain.Triangle{A: r.Dims[0], B: r.Dims[1], C: r.Dims[2]}, nil
	case r.Kind == domain.KindSquare && len(r.Dims) == 1:
		return domain.Square{Side: r.Dims[0]}, nil
	case r.Kind == domain.KindCircle && len(r.Dims) == 1:
		return domain.Circle{Radius: r.Dims[0]}, nil
	default:
		return nil, fmt.Errorf("malformed figure record %q with %d dims", r.Kind, len(r.Dims))
	}
}
