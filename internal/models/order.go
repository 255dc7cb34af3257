package models

import (
	"time"

	"gorm.io/datatypes"
)

// 订单状态码。1/10/12/13 与小程序端历史约定一致，不能改动。
const (
	OrderStatusPendingPayment       = 1  // 待付款
	OrderStatusPendingPaymentVerify = 2  // 待核款（全款流程）
	OrderStatusPendingShipment      = 3  // 待发货
	OrderStatusShipped              = 4  // 已发货
	OrderStatusCompleted            = 5  // 已完成
	OrderStatusCancelled            = 6  // 已取消
	OrderStatusDepositPaid          = 10 // 定金已付
	OrderStatusPendingFinalPayment  = 12 // 待付尾款
	OrderStatusFinalPaymentPaid     = 13 // 尾款已付
)

// 结算方式。空值表示历史数据未设置。
const (
	SettlementModeCommission       = "commission_mode"
	SettlementModeSupplierTransfer = "supplier_transfer"
	SettlementModeUnset            = ""
)

// 佣金状态。空值表示历史数据未进入佣金流程。
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApplied  = "applied"
	CommissionStatusApproved = "approved"
	CommissionStatusPaid     = "paid"
)

// 发票状态
const (
	InvoiceStatusPending    = "pending"
	InvoiceStatusProcessing = "processing"
	InvoiceStatusIssued     = "issued"
	InvoiceStatusSent       = "sent"
)

// 支付方式
const (
	PaymentMethodWechat = "wechat"
	PaymentMethodAlipay = "alipay"
	PaymentMethodBank   = "bank"
)

// Order 订单。支付、发货、佣金、发票状态都挂在同一条记录上，
// 全款与定金/尾款两种付款方式共用一张表，由 PaymentRatioEnabled 区分。
type Order struct {
	ID      string `gorm:"primarykey;type:varchar(32)"`
	OrderNo string `gorm:"uniqueIndex;type:varchar(32);not null"`
	UserID  uint   `gorm:"index;not null"`

	TotalAmount         float64        `gorm:"type:decimal(20,2);not null"`
	PaymentRatioEnabled bool           `gorm:"default:false"`
	DepositAmount       float64        `gorm:"type:decimal(20,2);default:0"`
	FinalPaymentAmount  float64        `gorm:"type:decimal(20,2);default:0"`
	Items               datatypes.JSON `gorm:"type:json"` // 下单时的商品快照

	Status                int    `gorm:"index;not null;default:1"`
	PaymentMethod         string `gorm:"type:varchar(20)"`
	PaidAt                *time.Time
	DepositPaymentMethod  string `gorm:"type:varchar(20)"`
	DepositPaidAt         *time.Time
	FinalPaymentMethod    string `gorm:"type:varchar(20)"`
	FinalPaymentPaidAt    *time.Time
	PaymentVerifiedAt     *time.Time
	PaymentVerifiedMethod string `gorm:"type:varchar(20)"`
	PaymentVerifyNote     string `gorm:"type:varchar(200)"`
	ShippedAt             *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time

	NeedInvoice     bool   `gorm:"default:false"`
	InvoiceStatus   string `gorm:"type:varchar(20);default:'pending'"`
	InvoiceIssuedAt *time.Time

	SettlementMode            string  `gorm:"type:varchar(20);index"`
	CommissionAmount          float64 `gorm:"type:decimal(20,3);default:0"`
	CommissionStatus          string  `gorm:"type:varchar(20);index"`
	CommissionAppliedAt       *time.Time
	CommissionApprovedAt      *time.Time
	CommissionPaidAt          *time.Time
	CommissionInvoiceURL      string `gorm:"type:varchar(500)"`
	CommissionPaymentProofURL string `gorm:"type:varchar(500)"`
	CommissionPaymentRemark   string `gorm:"type:varchar(200)"`

	// 软删除标记，独立于订单状态，任何状态下都可以打
	IsDeleted bool `gorm:"index;default:false"`

	ActivityLogs []OrderActivityLog `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Order) TableName() string {
	return "orders"
}

// IsTerminal 已完成和已取消是终态
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// CommissionRelevant 判断订单是否参与佣金统计。
// 历史数据的 settlement_mode / commission_status 可能为空，
// 所以用三个条件兜底，不能只看其中一个字段。
func (o *Order) CommissionRelevant() bool {
	if o.IsDeleted || o.SettlementMode == SettlementModeSupplierTransfer {
		return false
	}
	if o.SettlementMode == SettlementModeCommission {
		return true
	}
	switch o.CommissionStatus {
	case CommissionStatusPending, CommissionStatusApplied,
		CommissionStatusApproved, CommissionStatusPaid:
		return true
	}
	return o.CommissionAmount > 0
}

// ValidInvoiceStatus 发票状态枚举校验
func ValidInvoiceStatus(status string) bool {
	switch status {
	case InvoiceStatusPending, InvoiceStatusProcessing, InvoiceStatusIssued, InvoiceStatusSent:
		return true
	}
	return false
}

// OrderActivityLog 订单操作日志，只增不改，自增ID即插入顺序
type OrderActivityLog struct {
	ID        uint   `gorm:"primarykey"`
	OrderID   string `gorm:"index;type:varchar(32);not null"`
	Action    string `gorm:"type:varchar(50);not null"`
	Details   string `gorm:"type:varchar(500)"`
	Operator  string `gorm:"type:varchar(50)"`
	CreatedAt time.Time
}

func (OrderActivityLog) TableName() string {
	return "order_activity_logs"
}
