package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"xiaodiyanxuan-backend/internal/models"
	"xiaodiyanxuan-backend/internal/repository"
)

func setupCommissionTest(t *testing.T) (*CommissionService, *OrderService, func(func(*models.Order)) *models.Order) {
	t.Helper()

	db, orderSvc := setupOrderTest(t)
	commissionSvc := NewCommissionService(repository.NewOrderRepository(db))

	seed := func(mutate func(*models.Order)) *models.Order {
		return seedOrder(t, db, mutate)
	}
	return commissionSvc, orderSvc, seed
}

func TestCommissionStatsSumBeforeRounding(t *testing.T) {
	svc, _, seed := setupCommissionTest(t)

	// 两笔 10.005:先求和再舍入得 20.01,逐笔舍入会错成 20.00
	for i := 0; i < 2; i++ {
		seed(func(o *models.Order) {
			o.Status = models.OrderStatusCompleted
			o.SettlementMode = models.SettlementModeCommission
			o.CommissionAmount = 10.005
		})
	}

	stats, err := svc.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 20.01, stats.PendingApplication)
	assert.Equal(t, 20.01, stats.Total)
	assert.Len(t, stats.PendingApplicationOrders, 2)
}

func TestCommissionStatsPartition(t *testing.T) {
	svc, _, seed := setupCommissionTest(t)

	seed(func(o *models.Order) {
		o.SettlementMode = models.SettlementModeCommission
		o.CommissionAmount = 100
		o.CommissionStatus = models.CommissionStatusPending
	})
	seed(func(o *models.Order) {
		o.SettlementMode = models.SettlementModeCommission
		o.CommissionAmount = 200
		o.CommissionStatus = models.CommissionStatusApplied
	})
	seed(func(o *models.Order) {
		o.SettlementMode = models.SettlementModeCommission
		o.CommissionAmount = 300
		o.CommissionStatus = models.CommissionStatusApproved
	})
	seed(func(o *models.Order) {
		o.SettlementMode = models.SettlementModeCommission
		o.CommissionAmount = 400
		o.CommissionStatus = models.CommissionStatusPaid
	})

	stats, err := svc.Stats(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 100.0, stats.PendingApplication)
	assert.Equal(t, 200.0, stats.Applied)
	// approved 对应的桶名是 pending(已审核待打款),不能和 pendingApplication 混淆
	assert.Equal(t, 300.0, stats.Pending)
	assert.Equal(t, 400.0, stats.Settled)
	assert.Equal(t, 1000.0, stats.Total)

	// 每个订单恰好落在一个桶里
	assert.Len(t, stats.PendingApplicationOrders, 1)
	assert.Len(t, stats.AppliedOrders, 1)
	assert.Len(t, stats.ApprovedOrders, 1)
	assert.Len(t, stats.PaidOrders, 1)

	// 兼容字段与待申请列表内容一致
	assert.Equal(t, stats.PendingApplicationOrders, stats.PendingOrders)
}

func TestCommissionStatsExcludesSupplierTransfer(t *testing.T) {
	svc, _, seed := setupCommissionTest(t)

	seed(func(o *models.Order) {
		o.SettlementMode = models.SettlementModeSupplierTransfer
		o.CommissionAmount = 500
	})

	stats, err := svc.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0.0, stats.Total)
	assert.Empty(t, stats.PendingApplicationOrders)
	assert.Empty(t, stats.AppliedOrders)
	assert.Empty(t, stats.ApprovedOrders)
	assert.Empty(t, stats.PaidOrders)
}

func TestCommissionStatsLegacyRecords(t *testing.T) {
	svc, _, seed := setupCommissionTest(t)

	// 历史数据:没有结算方式、没有佣金状态,只有金额
	legacy := seed(func(o *models.Order) {
		o.CommissionAmount = 300
	})
	// 金额为 0 且无任何佣金标记的订单不参与统计
	seed(func(o *models.Order) {
		o.CommissionAmount = 0
	})
	// 已软删除的订单不参与统计
	seed(func(o *models.Order) {
		o.SettlementMode = models.SettlementModeCommission
		o.CommissionAmount = 100
		o.IsDeleted = true
	})

	stats, err := svc.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 300.0, stats.PendingApplication)
	assert.Equal(t, 300.0, stats.Total)
	assert.Len(t, stats.PendingApplicationOrders, 1)
	assert.Equal(t, legacy.ID, stats.PendingApplicationOrders[0].ID)
}

func TestCommissionApplyApprovePayFlow(t *testing.T) {
	svc, _, seed := setupCommissionTest(t)
	ctx := context.Background()

	order := seed(func(o *models.Order) {
		o.Status = models.OrderStatusCompleted
		o.SettlementMode = models.SettlementModeCommission
		o.CommissionAmount = 50
	})

	updated, err := svc.Apply(ctx, order.ID, "https://cdn.example.com/invoice.pdf", "经销商")
	assert.NoError(t, err)
	assert.Equal(t, models.CommissionStatusApplied, updated.CommissionStatus)
	assert.NotNil(t, updated.CommissionAppliedAt)
	assert.Equal(t, "https://cdn.example.com/invoice.pdf", updated.CommissionInvoiceURL)

	_, err = svc.Apply(ctx, order.ID, "", "经销商")
	assert.ErrorIs(t, err, ErrOrderStateConflict)

	updated, err = svc.Approve(ctx, order.ID, "管理员")
	assert.NoError(t, err)
	assert.Equal(t, models.CommissionStatusApproved, updated.CommissionStatus)
	assert.NotNil(t, updated.CommissionApprovedAt)

	_, err = svc.Approve(ctx, order.ID, "管理员")
	assert.ErrorIs(t, err, ErrOrderStateConflict)

	updated, err = svc.Pay(ctx, order.ID, "https://cdn.example.com/proof.png", "9月打款", "管理员")
	assert.NoError(t, err)
	assert.Equal(t, models.CommissionStatusPaid, updated.CommissionStatus)
	assert.NotNil(t, updated.CommissionPaidAt)
	assert.Equal(t, "9月打款", updated.CommissionPaymentRemark)

	_, err = svc.Pay(ctx, order.ID, "", "", "管理员")
	assert.ErrorIs(t, err, ErrOrderStateConflict)
}

func TestCommissionApplyGuards(t *testing.T) {
	svc, _, seed := setupCommissionTest(t)
	ctx := context.Background()

	// 订单未完成不能申请
	notCompleted := seed(func(o *models.Order) {
		o.Status = models.OrderStatusPendingShipment
		o.SettlementMode = models.SettlementModeCommission
		o.CommissionAmount = 50
	})
	_, err := svc.Apply(ctx, notCompleted.ID, "", "经销商")
	assert.ErrorIs(t, err, ErrOrderStateConflict)

	// 供应商转账订单不参与佣金流程
	supplier := seed(func(o *models.Order) {
		o.Status = models.OrderStatusCompleted
		o.SettlementMode = models.SettlementModeSupplierTransfer
		o.CommissionAmount = 50
	})
	_, err = svc.Apply(ctx, supplier.ID, "", "经销商")
	assert.ErrorIs(t, err, ErrOrderStateConflict)

	// 未申请先审核
	fresh := seed(func(o *models.Order) {
		o.Status = models.OrderStatusCompleted
		o.SettlementMode = models.SettlementModeCommission
		o.CommissionAmount = 50
	})
	_, err = svc.Approve(ctx, fresh.ID, "管理员")
	assert.ErrorIs(t, err, ErrOrderStateConflict)
}

func TestCommissionWholeLifecycle(t *testing.T) {
	svc, orderSvc, seed := setupCommissionTest(t)
	ctx := context.Background()

	order := seed(func(o *models.Order) {
		o.SettlementMode = models.SettlementModeCommission
		o.CommissionAmount = 88.8
	})

	// 完整走一遍订单生命周期后才能申请佣金
	_, err := svc.Apply(ctx, order.ID, "", "经销商")
	assert.ErrorIs(t, err, ErrOrderStateConflict)

	_, err = orderSvc.Pay(ctx, order.ID, models.PaymentMethodWechat, "买家")
	assert.NoError(t, err)
	_, err = orderSvc.VerifyPayment(ctx, order.ID, models.PaymentMethodWechat, "", "卖家")
	assert.NoError(t, err)
	_, err = orderSvc.Ship(ctx, order.ID, "卖家")
	assert.NoError(t, err)
	_, err = orderSvc.Confirm(ctx, order.ID, "买家")
	assert.NoError(t, err)

	updated, err := svc.Apply(ctx, order.ID, "", "经销商")
	assert.NoError(t, err)
	assert.Equal(t, models.CommissionStatusApplied, updated.CommissionStatus)

	stats, err := svc.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 88.8, stats.Applied)
	assert.Equal(t, 88.8, stats.Total)
}
