// internal/service/order/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFigure      = errors.New("invalid figure")
	ErrInvalidPosition    = errors.New("invalid position")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOutOfStock         = errors.New("out of stock")
	ErrStockUnavailable   = errors.New("stock store unavailable")
	ErrPersistenceFailed  = errors.New("order persistence failed")
	ErrCompensationFailed = errors.New("stock compensation failed")
	ErrOrderNotFound      = errors.New("order not found")
)

// InvalidFigureError 描述一个未通过几何校验的图形。
type InvalidFigureError struct {
	Kind   Kind
	Reason string
}

func (e *InvalidFigureError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("invalid figure: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, e.Reason)
}

func (e *InvalidFigureError) Is(target error) bool { return target == ErrInvalidFigure }

// InvalidPositionError 表示购物车中某个位置的数量不合法。
type InvalidPositionError struct {
	Index int
	Count int
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("position %d: count must be positive, got %d", e.Index, e.Count)
}

func (e *InvalidPositionError) Is(target error) bool { return target == ErrInvalidPosition }

// OutOfStockError 携带库存不足的类型键。
type OutOfStockError struct {
	TypeKey   string
	Requested int64
	Available int64
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock for %q: requested %d, available %d", e.TypeKey, e.Requested, e.Available)
}

func (e *OutOfStockError) Is(target error) bool { return target == ErrOutOfStock }

// PersistenceFailedError 表示订单保存失败，此时所有预占都已释放，调用方可以重试。
type PersistenceFailedError struct {
	OrderID string
	Err     error
}

func (e *PersistenceFailedError) Error() string {
	return fmt.Sprintf("order %s was not placed: %v", e.OrderID, e.Err)
}

func (e *PersistenceFailedError) Is(target error) bool { return target == ErrPersistenceFailed }

func (e *PersistenceFailedError) Unwrap() error { return e.Err }

// CompensationFailedError 表示释放预占库存失败，库存处于错误的扣减状态，需要人工介入。
// Cause 是触发补偿的原始错误，errors.Is 对两者都成立。
type CompensationFailedError struct {
	OrderID    string
	Cause      error
	Unreleased []Ticket
	Err        error
}

func (e *CompensationFailedError) Error() string {
	return fmt.Sprintf("order %s: %d reservation(s) could not be released after %v: %v",
		e.OrderID, len(e.Unreleased), e.Cause, e.Err)
}

func (e *CompensationFailedError) Is(target error) bool { return target == ErrCompensationFailed }

func (e *CompensationFailedError) Unwrap() []error { return []error{e.Cause, e.Err} }

// Retryable 判断调用方在补偿完成后是否可以重试。
func Retryable(err error) bool {
	if errors.Is(err, ErrCompensationFailed) {
		return false
	}
	return errors.Is(err, ErrPersistenceFailed) || errors.Is(err, ErrStockUnavailable)
}
