// internal/service/order/domain/pricing.go
package domain

import "github.com/shopspring/decimal"

// 每种图形的加价系数。金额计算一律使用 decimal，避免浮点累加误差。
var markups = map[Kind]decimal.Decimal{
	KindTriangle: decimal.RequireFromString("1.2"),
	KindSquare:   decimal.RequireFromString("1.0"),
	KindCircle:   decimal.RequireFromString("0.9"),
}

// Markup 返回图形种类对应的加价系数。
func Markup(kind Kind) (decimal.Decimal, bool) {
	m, ok := markups[kind]
	return m, ok
}

// Price 计算单个图形的价格：面积 × 加价系数。
func Price(f Figure) decimal.Decimal {
	m, ok := Markup(f.Kind())
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(Area(f)).Mul(m)
}

// Total 计算订单总价。
func Total(figures []Figure) decimal.Decimal {
	total := decimal.Zero
	for _, f := range figures {
		total = total.Add(Price(f))
	}
	return total
}
