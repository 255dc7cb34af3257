package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"xiaodiyanxuan-backend/internal/models"
)

type gormOrderRepository struct {
	db *gorm.DB
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// NewOrderRepository 基于 gorm 的订单仓储实现
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

func (r *gormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *gormOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("ActivityLogs", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&order, "id = ? AND is_deleted = ?", id, false).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepository) Find(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("is_deleted = ?", false)

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OrderNo != nil {
		query = query.Where("order_no = ?", *filter.OrderNo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Limit(filter.Limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *gormOrderRepository) FindCommissionCandidates(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	// settlement_mode 为 NULL 的历史数据也要进候选集
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("settlement_mode IS NULL OR settlement_mode <> ?", models.SettlementModeSupplierTransfer).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *gormOrderRepository) Transition(ctx context.Context, id string, fn TransitionFunc) (*models.Order, error) {
	var updated *models.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 加锁查询订单（sqlite 方言会忽略行锁子句，测试不受影响）
		var order models.Order
		if err := lockForUpdate(tx).
			First(&order, "id = ? AND is_deleted = ?", id, false).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// 2. 状态校验与变更
		entry, err := fn(&order)
		if err != nil {
			return err
		}

		// 3. 保存订单
		order.UpdatedAt = time.Now()
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		// 4. 同一事务内追加操作日志
		if entry != nil {
			entry.OrderID = order.ID
			if entry.CreatedAt.IsZero() {
				entry.CreatedAt = time.Now()
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
