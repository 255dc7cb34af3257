package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"xiaodiyanxuan-backend/internal/models"
	"xiaodiyanxuan-backend/internal/repository"
)

// 错误定义
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderStateConflict   = errors.New("operation not allowed in current order status")
	ErrInvoiceNotNeeded     = errors.New("order does not need an invoice")
	ErrInvalidInvoiceStatus = errors.New("invalid invoice status")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// OrderService 订单生命周期控制。所有状态变更都通过仓储的 Transition
// 在单个事务内完成校验-修改-记日志，重复请求会命中状态守卫直接失败。
type OrderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// CreateOrderParams 创建订单参数
type CreateOrderParams struct {
	UserID           uint
	TotalAmount      float64
	PaymentRatio     float64 // 0 表示全款，(0,1) 表示定金比例
	NeedInvoice      bool
	SettlementMode   string
	CommissionAmount float64
	Items            datatypes.JSON
}

// CreateOrder 创建订单。定金/尾款金额在此一次性算定，之后不再重算。
func (s *OrderService) CreateOrder(ctx context.Context, params CreateOrderParams) (*models.Order, error) {
	order := &models.Order{
		ID:               strings.ReplaceAll(uuid.New().String(), "-", ""),
		OrderNo:          generateOrderNo(),
		UserID:           params.UserID,
		TotalAmount:      params.TotalAmount,
		Status:           models.OrderStatusPendingPayment,
		NeedInvoice:      params.NeedInvoice,
		InvoiceStatus:    models.InvoiceStatusPending,
		SettlementMode:   params.SettlementMode,
		CommissionAmount: params.CommissionAmount,
		Items:            params.Items,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if params.PaymentRatio > 0 && params.PaymentRatio < 1 {
		total := decimal.NewFromFloat(params.TotalAmount)
		deposit := total.Mul(decimal.NewFromFloat(params.PaymentRatio)).Round(2)
		order.PaymentRatioEnabled = true
		order.DepositAmount, _ = deposit.Float64()
		order.FinalPaymentAmount, _ = total.Sub(deposit).Float64()
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Pay 提交支付。三个分支共用一个入口：
//   - 全款：待付款 且 未启用定金比例
//   - 定金：待付款 且 启用定金比例
//   - 尾款：待付尾款 且 启用定金比例
func (s *OrderService) Pay(ctx context.Context, orderID, paymentMethod, operator string) (*models.Order, error) {
	if !validPaymentMethod(paymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		now := time.Now()
		switch {
		case order.Status == models.OrderStatusPendingPayment && !order.PaymentRatioEnabled:
			order.Status = models.OrderStatusPendingPaymentVerify
			order.PaymentMethod = paymentMethod
			order.PaidAt = &now
			return &models.OrderActivityLog{
				Action:   "payment_submitted",
				Details:  fmt.Sprintf("提交全款支付 %.2f 元，支付方式：%s", order.TotalAmount, paymentMethodLabel(paymentMethod)),
				Operator: operator,
			}, nil

		case order.Status == models.OrderStatusPendingPayment && order.PaymentRatioEnabled:
			order.Status = models.OrderStatusDepositPaid
			order.DepositPaymentMethod = paymentMethod
			order.DepositPaidAt = &now
			return &models.OrderActivityLog{
				Action:   "deposit_paid",
				Details:  fmt.Sprintf("支付定金 %.2f 元，支付方式：%s", order.DepositAmount, paymentMethodLabel(paymentMethod)),
				Operator: operator,
			}, nil

		case order.Status == models.OrderStatusPendingFinalPayment && order.PaymentRatioEnabled:
			order.Status = models.OrderStatusFinalPaymentPaid
			order.FinalPaymentMethod = paymentMethod
			order.FinalPaymentPaidAt = &now
			return &models.OrderActivityLog{
				Action:   "final_payment_paid",
				Details:  fmt.Sprintf("支付尾款 %.2f 元，支付方式：%s", order.FinalPaymentAmount, paymentMethodLabel(paymentMethod)),
				Operator: operator,
			}, nil
		}
		return nil, ErrOrderStateConflict
	})
}

// VerifyPayment 卖家核款。只有全款流程的待核款状态可以核款，
// 定金/尾款流程不经过此步骤。
func (s *OrderService) VerifyPayment(ctx context.Context, orderID, paymentMethod, verifyNote, operator string) (*models.Order, error) {
	if !validPaymentMethod(paymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		if order.Status != models.OrderStatusPendingPaymentVerify {
			return nil, ErrOrderStateConflict
		}
		now := time.Now()
		order.Status = models.OrderStatusPendingShipment
		order.PaymentVerifiedAt = &now
		order.PaymentVerifiedMethod = paymentMethod
		order.PaymentVerifyNote = verifyNote
		return &models.OrderActivityLog{
			Action:   "payment_verified",
			Details:  fmt.Sprintf("卖家确认收款，收款方式：%s", paymentMethodLabel(paymentMethod)),
			Operator: operator,
		}, nil
	})
}

// RequestFinalPayment 卖家发起尾款收款：定金已付 -> 待付尾款
func (s *OrderService) RequestFinalPayment(ctx context.Context, orderID, operator string) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		if order.Status != models.OrderStatusDepositPaid {
			return nil, ErrOrderStateConflict
		}
		order.Status = models.OrderStatusPendingFinalPayment
		return &models.OrderActivityLog{
			Action:   "final_payment_requested",
			Details:  fmt.Sprintf("通知支付尾款 %.2f 元", order.FinalPaymentAmount),
			Operator: operator,
		}, nil
	})
}

// cancellableStatuses 允许取消的状态。已发货后不能再取消。
var cancellableStatuses = map[int]bool{
	models.OrderStatusPendingPayment:       true,
	models.OrderStatusPendingPaymentVerify: true,
	models.OrderStatusDepositPaid:          true,
	models.OrderStatusPendingFinalPayment:  true,
	models.OrderStatusFinalPaymentPaid:     true,
	models.OrderStatusPendingShipment:      true,
}

// Cancel 取消订单
func (s *OrderService) Cancel(ctx context.Context, orderID, operator string) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		if !cancellableStatuses[order.Status] {
			return nil, ErrOrderStateConflict
		}
		now := time.Now()
		order.Status = models.OrderStatusCancelled
		order.CancelledAt = &now
		return &models.OrderActivityLog{
			Action:   "order_cancelled",
			Details:  "订单已取消",
			Operator: operator,
		}, nil
	})
}

// Ship 发货。待发货（全款核款后）或尾款已付（定金流程不经过核款）都可发货。
func (s *OrderService) Ship(ctx context.Context, orderID, operator string) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		if order.Status != models.OrderStatusPendingShipment && order.Status != models.OrderStatusFinalPaymentPaid {
			return nil, ErrOrderStateConflict
		}
		now := time.Now()
		order.Status = models.OrderStatusShipped
		order.ShippedAt = &now
		return &models.OrderActivityLog{
			Action:   "shipped",
			Details:  "订单已发货",
			Operator: operator,
		}, nil
	})
}

// Confirm 确认收货：已发货 -> 已完成
func (s *OrderService) Confirm(ctx context.Context, orderID, operator string) (*models.Order, error) {
	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		if order.Status != models.OrderStatusShipped {
			return nil, ErrOrderStateConflict
		}
		now := time.Now()
		order.Status = models.OrderStatusCompleted
		order.CompletedAt = &now
		return &models.OrderActivityLog{
			Action:   "order_completed",
			Details:  "买家确认收货，订单完成",
			Operator: operator,
		}, nil
	})
}

// UpdateInvoiceStatus 更新发票状态。只对需要发票的订单开放；
// 首次进入 issued 时记录开票时间，之后不再改写。
func (s *OrderService) UpdateInvoiceStatus(ctx context.Context, orderID, invoiceStatus, operator string) (*models.Order, error) {
	if !models.ValidInvoiceStatus(invoiceStatus) {
		return nil, ErrInvalidInvoiceStatus
	}

	return s.transition(ctx, orderID, func(order *models.Order) (*models.OrderActivityLog, error) {
		if !order.NeedInvoice {
			return nil, ErrInvoiceNotNeeded
		}
		order.InvoiceStatus = invoiceStatus
		if invoiceStatus == models.InvoiceStatusIssued && order.InvoiceIssuedAt == nil {
			now := time.Now()
			order.InvoiceIssuedAt = &now
		}
		return &models.OrderActivityLog{
			Action:   "invoice_status_updated",
			Details:  fmt.Sprintf("发票状态更新为 %s", invoiceStatus),
			Operator: operator,
		}, nil
	})
}

// GetOrder 订单详情（含操作日志）
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListOrders 订单列表
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	return s.repo.Find(ctx, filter)
}

func (s *OrderService) transition(ctx context.Context, orderID string, fn repository.TransitionFunc) (*models.Order, error) {
	order, err := s.repo.Transition(ctx, orderID, fn)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func validPaymentMethod(method string) bool {
	switch method {
	case models.PaymentMethodWechat, models.PaymentMethodAlipay, models.PaymentMethodBank:
		return true
	}
	return false
}

func paymentMethodLabel(method string) string {
	switch method {
	case models.PaymentMethodWechat:
		return "微信"
	case models.PaymentMethodAlipay:
		return "支付宝"
	case models.PaymentMethodBank:
		return "银行转账"
	}
	return method
}

func generateOrderNo() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("XD%s%s", time.Now().Format("20060102150405"), suffix)
}
