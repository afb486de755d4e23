package infrastructure

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FigureOrderModel 对应数据库中的 figure_order 表
// 总价按十进制字符串原样存储。合法图形的面积可以接近 float64 的上限或下限，
// 字符串长度可达数百个字符，所以使用 TEXT 而不是定长列。
type FigureOrderModel struct {
	gorm.Model
	OrderKey string          `gorm:"type:varchar(64);uniqueIndex"`
	Total    decimal.Decimal `gorm:"type:text"`
	Figures  string          `gorm:"type:mediumtext"` // JSON 编码的 []figureRecord
}

// TableName 指定 GORM 应该使用的表名
func (FigureOrderModel) TableName() string {
	return "figure_order"
}
