package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"xiaodiyanxuan-backend/internal/models"
	"xiaodiyanxuan-backend/internal/repository"
)

// CommissionService 佣金流程（申请 -> 审核 -> 打款）与统计。
// 统计是纯读侧，允许读到并发更新中的快照。
type CommissionService struct {
	repo repository.OrderRepository
}

func NewCommissionService(repo repository.OrderRepository) *CommissionService {
	return &CommissionService{repo: repo}
}

// Apply 申请佣金。订单必须已完成，且佣金未进入流程（空或 pending）。
func (s *CommissionService) Apply(ctx context.Context, orderID, invoiceURL, operator string) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		if order.Status != models.OrderStatusCompleted {
			return nil, ErrOrderStateConflict
		}
		if order.SettlementMode == models.SettlementModeSupplierTransfer {
			return nil, ErrOrderStateConflict
		}
		if order.CommissionStatus != models.CommissionStatusPending && order.CommissionStatus != "" {
			return nil, ErrOrderStateConflict
		}
		now := time.Now()
		order.CommissionStatus = models.CommissionStatusApplied
		order.CommissionAppliedAt = &now
		order.CommissionInvoiceURL = invoiceURL
		return &models.OrderActivityLog{
			Action:   "commission_applied",
			Details:  fmt.Sprintf("申请佣金 %.2f 元", order.CommissionAmount),
			Operator: operator,
		}, nil
	})
}

// Approve 审核通过佣金申请
func (s *CommissionService) Approve(ctx context.Context, orderID, operator string) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		if order.CommissionStatus != models.CommissionStatusApplied {
			return nil, ErrOrderStateConflict
		}
		now := time.Now()
		order.CommissionStatus = models.CommissionStatusApproved
		order.CommissionApprovedAt = &now
		return &models.OrderActivityLog{
			Action:   "commission_approved",
			Details:  fmt.Sprintf("佣金申请审核通过，待打款 %.2f 元", order.CommissionAmount),
			Operator: operator,
		}, nil
	})
}

// Pay 佣金打款，附打款凭证
func (s *CommissionService) Pay(ctx context.Context, orderID, paymentProofURL, remark, operator string) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		if order.CommissionStatus != models.CommissionStatusApproved {
			return nil, ErrOrderStateConflict
		}
		now := time.Now()
		order.CommissionStatus = models.CommissionStatusPaid
		order.CommissionPaidAt = &now
		order.CommissionPaymentProofURL = paymentProofURL
		order.CommissionPaymentRemark = remark
		return &models.OrderActivityLog{
			Action:   "commission_paid",
			Details:  fmt.Sprintf("佣金已打款 %.2f 元", order.CommissionAmount),
			Operator: operator,
		}, nil
	})
}

// CommissionOrderSummary 统计列表中的订单摘要
type CommissionOrderSummary struct {
	ID               string     `json:"id"`
	OrderNo          string     `json:"orderNo"`
	TotalAmount      float64    `json:"totalAmount"`
	CommissionAmount float64    `json:"commissionAmount"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	AppliedAt        *time.Time `json:"commissionAppliedAt,omitempty"`
	ApprovedAt       *time.Time `json:"commissionApprovedAt,omitempty"`
	PaidAt           *time.Time `json:"commissionPaidAt,omitempty"`
	InvoiceURL       string     `json:"commissionInvoiceUrl,omitempty"`
	PaymentProofURL  string     `json:"commissionPaymentProofUrl,omitempty"`
	PaymentRemark    string     `json:"commissionPaymentRemark,omitempty"`
}

// CommissionStatsData 佣金统计。
// 注意命名：pending 是"已审核待打款"，pendingApplication 才是"待申请"，
// 这是前端既有约定，不能调换。pendingOrders 与 pendingApplicationOrders
// 内容相同，旧版小程序仍在读取。
type CommissionStatsData struct {
	PendingApplication float64 `json:"pendingApplication"`
	Applied            float64 `json:"applied"`
	Pending            float64 `json:"pending"`
	Settled            float64 `json:"settled"`
	Total              float64 `json:"total"`

	PendingApplicationOrders []CommissionOrderSummary `json:"pendingApplicationOrders"`
	AppliedOrders            []CommissionOrderSummary `json:"appliedOrders"`
	ApprovedOrders           []CommissionOrderSummary `json:"approvedOrders"`
	PaidOrders               []CommissionOrderSummary `json:"paidOrders"`
	PendingOrders            []CommissionOrderSummary `json:"pendingOrders"`
}

// Stats 把佣金相关订单分到四个互斥的桶里并汇总金额。
// 金额全程用 decimal 累加，输出时统一保留两位（四舍五入），
// 避免逐笔舍入累积误差。
func (s *CommissionService) Stats(ctx context.Context) (*CommissionStatsData, error) {
	orders, err := s.repo.FindCommissionCandidates(ctx)
	if err != nil {
		return nil, err
	}

	data := &CommissionStatsData{
		PendingApplicationOrders: []CommissionOrderSummary{},
		AppliedOrders:            []CommissionOrderSummary{},
		ApprovedOrders:           []CommissionOrderSummary{},
		PaidOrders:               []CommissionOrderSummary{},
	}

	var pendingApplication, applied, approved, paid decimal.Decimal

	for i := range orders {
		order := &orders[i]
		if !order.CommissionRelevant() {
			continue
		}

		amount := decimal.NewFromFloat(order.CommissionAmount)
		summary := toCommissionSummary(order)

		switch order.CommissionStatus {
		case models.CommissionStatusApplied:
			applied = applied.Add(amount)
			data.AppliedOrders = append(data.AppliedOrders, summary)
		case models.CommissionStatusApproved:
			approved = approved.Add(amount)
			data.ApprovedOrders = append(data.ApprovedOrders, summary)
		case models.CommissionStatusPaid:
			paid = paid.Add(amount)
			data.PaidOrders = append(data.PaidOrders, summary)
		default:
			// 空状态（历史数据）和 pending 都算未申请
			pendingApplication = pendingApplication.Add(amount)
			data.PendingApplicationOrders = append(data.PendingApplicationOrders, summary)
		}
	}

	total := pendingApplication.Add(applied).Add(approved).Add(paid)

	data.PendingApplication = roundMoney(pendingApplication)
	data.Applied = roundMoney(applied)
	data.Pending = roundMoney(approved)
	data.Settled = roundMoney(paid)
	data.Total = roundMoney(total)
	data.PendingOrders = data.PendingApplicationOrders

	return data, nil
}

func (s *CommissionService) transition(ctx context.Context, orderID string, fn repository.TransitionFunc) (*models.Order, error) {
	order, err := s.repo.Transition(ctx, orderID, fn)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func toCommissionSummary(order *models.Order) CommissionOrderSummary {
	return CommissionOrderSummary{
		ID:               order.ID,
		OrderNo:          order.OrderNo,
		TotalAmount:      order.TotalAmount,
		CommissionAmount: order.CommissionAmount,
		CompletedAt:      order.CompletedAt,
		AppliedAt:        order.CommissionAppliedAt,
		ApprovedAt:       order.CommissionApprovedAt,
		PaidAt:           order.CommissionPaidAt,
		InvoiceURL:       order.CommissionInvoiceURL,
		PaymentProofURL:  order.CommissionPaymentProofURL,
		PaymentRemark:    order.CommissionPaymentRemark,
	}
}

func roundMoney(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
