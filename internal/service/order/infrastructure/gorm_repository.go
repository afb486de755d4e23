package infrastructure

import (
	"context"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"figurestore/internal/service/order/domain"
)

const mysqlDuplicateEntry = 1062

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save 插入订单。总价由仓储根据图形重新计算后落库并返回。
// order_key 上的唯一索引让重试变成幂等操作：重复插入时返回已存储的总价。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) (decimal.Decimal, error) {
	model, err := FromDomainOrder(order)
	if err != nil {
		return decimal.Zero, err
	}
	model.Total = domain.Total(order.Figures)

	err = r.db.WithContext(ctx).Create(model).Error
	if isDuplicateKey(err) {
		var existing FigureOrderModel
		if err := r.db.WithContext(ctx).Where("order_key = ?", order.ID).First(&existing).Error; err != nil {
			return decimal.Zero, errors.Wrapf(err, "load existing order %s", order.ID)
		}
		return existing.Total, nil
	}
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "insert order %s", order.ID)
	}
	return model.Total, nil
}

// FindByID 使用 GORM 按订单键查找订单
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model FigureOrderModel
	err := r.db.WithContext(ctx).Where("order_key = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "find order %s", id)
	}
	return ToDomainOrder(&model)
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysqldriver.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
