// internal/service/order/domain/figure.go
package domain

import "math"

// Kind 标识图形的种类，同时也是库存中的类型键。
type Kind string

const (
	KindTriangle Kind = "triangle"
	KindSquare   Kind = "square"
	KindCircle   Kind = "circle"
)

// Figure 是一个封闭的和类型，只有本包中的 Triangle、Square、Circle 可以实现它。
// 每个变体只持有自己的尺寸字段。
type Figure interface {
	Kind() Kind
	sealed()
}

type Triangle struct {
	A, B, C float64
}

type Square struct {
	Side float64
}

type Circle struct {
	Radius float64
}

func (Triangle) Kind() Kind { return KindTriangle }
func (Square) Kind() Kind   { return KindSquare }
func (Circle) Kind() Kind   { return KindCircle }

func (Triangle) sealed() {}
func (Square) sealed()   {}
func (Circle) sealed()   {}

// Validate 按图形变体执行几何校验。
// 正方形和圆形的尺寸为 0 时面积为 0，仍视为合法。
// 尺寸或面积不是有限数时价格无法计算，同样判为非法，保证校验通过的图形一定能定价。
func Validate(f Figure) error {
	if err := validateShape(f); err != nil {
		return err
	}
	if area := Area(f); math.IsInf(area, 0) || math.IsNaN(area) {
		return &InvalidFigureError{Kind: f.Kind(), Reason: "area is not a finite number"}
	}
	return nil
}

func validateShape(f Figure) error {
	switch v := f.(type) {
	case Triangle:
		if !finite(v.A, v.B, v.C) {
			return &InvalidFigureError{Kind: KindTriangle, Reason: "sides must be finite numbers"}
		}
		if !(v.A < v.B+v.C) || !(v.B < v.A+v.C) || !(v.C < v.A+v.B) {
			return &InvalidFigureError{Kind: KindTriangle, Reason: "triangle inequality not met"}
		}
		return nil
	case Square:
		if !finite(v.Side) {
			return &InvalidFigureError{Kind: KindSquare, Reason: "side must be a finite number"}
		}
		if v.Side < 0 {
			return &InvalidFigureError{Kind: KindSquare, Reason: "side must not be negative"}
		}
		return nil
	case Circle:
		if !finite(v.Radius) {
			return &InvalidFigureError{Kind: KindCircle, Reason: "radius must be a finite number"}
		}
		if v.Radius < 0 {
			return &InvalidFigureError{Kind: KindCircle, Reason: "radius must not be negative"}
		}
		return nil
	case nil:
		return &InvalidFigureError{Reason: "figure is missing"}
	default:
		return &InvalidFigureError{Reason: "unknown figure"}
	}
}

func finite(dims ...float64) bool {
	for _, d := range dims {
		if math.IsInf(d, 0) || math.IsNaN(d) {
			return false
		}
	}
	return true
}

// Area 计算图形面积。三角形使用海伦公式。
func Area(f Figure) float64 {
	switch v := f.(type) {
	case Triangle:
		p := (v.A + v.B + v.C) / 2
		// 接近退化的三角形在舍入后乘积可能略小于 0
		return math.Sqrt(math.Max(0, p*(p-v.A)*(p-v.B)*(p-v.C)))
	case Square:
		return v.Side * v.Side
	case Circle:
		return math.Pi * v.Radius * v.Radius
	default:
		return 0
	}
}
