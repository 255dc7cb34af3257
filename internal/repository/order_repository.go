package repository

import (
	"context"
	"errors"

	"xiaodiyanxuan-backend/internal/models"
)

// ErrNotFound 订单不存在（含已软删除的订单）
var ErrNotFound = errors.New("record not found")

// OrderFilter 订单查询过滤条件
type OrderFilter struct {
	UserID  *uint
	Status  *int
	OrderNo *string
	Page    int
	Limit   int
}

// TransitionFunc 在行锁内校验并修改订单，返回要追加的操作日志。
// 返回错误则整个事务回滚，订单和日志都不落库。
type TransitionFunc func(order *models.Order) (*models.OrderActivityLog, error)

// OrderRepository 订单仓储接口。生命周期控制和佣金统计只依赖该接口，
// 不直接使用全局数据库连接。
type OrderRepository interface {
	// Create 创建订单
	Create(ctx context.Context, order *models.Order) error

	// FindByID 根据ID查询订单（含按插入顺序排列的操作日志）
	FindByID(ctx context.Context, id string) (*models.Order, error)

	// Find 按条件分页查询订单列表
	Find(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)

	// FindCommissionCandidates 佣金统计候选集：未删除且非供应商转账的订单。
	// 进一步的相关性判断由调用方完成（历史数据字段可能为空）。
	FindCommissionCandidates(ctx context.Context) ([]models.Order, error)

	// Transition 对单个订单执行一次原子的读-校验-写
	Transition(ctx context.Context, id string, fn TransitionFunc) (*models.Order, error)
}
