package order

import (
	"encoding/json"
	"time"

	"xiaodiyanxuan-backend/internal/models"
)

// CreateOrderRequest 创建订单请求。paymentRatio 大于 0 时启用定金/尾款。
type CreateOrderRequest struct {
	TotalAmount      float64         `json:"totalAmount" binding:"required,gt=0"`
	PaymentRatio     float64         `json:"paymentRatio" binding:"omitempty,gt=0,lt=1"`
	NeedInvoice      bool            `json:"needInvoice"`
	SettlementMode   string          `json:"settlementMode" binding:"omitempty,oneof=commission_mode supplier_transfer"`
	CommissionAmount float64         `json:"commissionAmount" binding:"omitempty,gte=0"`
	Items            json.RawMessage `json:"items"`
}

// PayRequest 提交支付请求
type PayRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required,oneof=wechat alipay bank"`
}

// VerifyPaymentRequest 卖家核款请求
type VerifyPaymentRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required,oneof=wechat alipay bank"`
	VerifyNote    string `json:"verifyNote"`
}

// UpdateInvoiceStatusRequest 更新发票状态请求
type UpdateInvoiceStatusRequest struct {
	InvoiceStatus string `json:"invoiceStatus" binding:"required,oneof=pending processing issued sent"`
}

// ApplyCommissionRequest 申请佣金请求
type ApplyCommissionRequest struct {
	InvoiceURL string `json:"invoiceUrl"`
}

// PayCommissionRequest 佣金打款请求
type PayCommissionRequest struct {
	PaymentProofURL string `json:"paymentProofUrl"`
	Remark          string `json:"remark"`
}

// ActivityLogItem 操作日志项
type ActivityLogItem struct {
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	Operator  string    `json:"operator,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderDetail 订单详情。字段名与小程序端约定一致（驼峰）。
type OrderDetail struct {
	ID                    string     `json:"id"`
	OrderNo               string     `json:"orderNo"`
	UserID                uint       `json:"userId"`
	TotalAmount           float64    `json:"totalAmount"`
	PaymentRatioEnabled   bool       `json:"paymentRatioEnabled"`
	DepositAmount         float64    `json:"depositAmount,omitempty"`
	FinalPaymentAmount    float64    `json:"finalPaymentAmount,omitempty"`
	Status                int        `json:"status"`
	PaymentMethod         string     `json:"paymentMethod,omitempty"`
	PaidAt                *time.Time `json:"paidAt,omitempty"`
	DepositPaymentMethod  string     `json:"depositPaymentMethod,omitempty"`
	DepositPaidAt         *time.Time `json:"depositPaidAt,omitempty"`
	FinalPaymentMethod    string     `json:"finalPaymentMethod,omitempty"`
	FinalPaymentPaidAt    *time.Time `json:"finalPaymentPaidAt,omitempty"`
	PaymentVerifiedAt     *time.Time `json:"paymentVerifiedAt,omitempty"`
	PaymentVerifiedMethod string     `json:"paymentVerifiedMethod,omitempty"`
	PaymentVerifyNote     string     `json:"paymentVerifyNote,omitempty"`
	ShippedAt             *time.Time `json:"shippedAt,omitempty"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	CancelledAt           *time.Time `json:"cancelledAt,omitempty"`

	NeedInvoice     bool       `json:"needInvoice"`
	InvoiceStatus   string     `json:"invoiceStatus,omitempty"`
	InvoiceIssuedAt *time.Time `json:"invoiceIssuedAt,omitempty"`

	SettlementMode            string     `json:"settlementMode,omitempty"`
	CommissionAmount          float64    `json:"commissionAmount"`
	CommissionStatus          string     `json:"commissionStatus,omitempty"`
	CommissionAppliedAt       *time.Time `json:"commissionAppliedAt,omitempty"`
	CommissionApprovedAt      *time.Time `json:"commissionApprovedAt,omitempty"`
	CommissionPaidAt          *time.Time `json:"commissionPaidAt,omitempty"`
	CommissionInvoiceURL      string     `json:"commissionInvoiceUrl,omitempty"`
	CommissionPaymentProofURL string     `json:"commissionPaymentProofUrl,omitempty"`
	CommissionPaymentRemark   string     `json:"commissionPaymentRemark,omitempty"`

	ActivityLogs []ActivityLogItem `json:"activityLogs,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderListResponse 订单列表响应
type OrderListResponse struct {
	Orders []OrderDetail `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

func toOrderDetail(o *models.Order) OrderDetail {
	detail := OrderDetail{
		ID:                    o.ID,
		OrderNo:               o.OrderNo,
		UserID:                o.UserID,
		TotalAmount:           o.TotalAmount,
		PaymentRatioEnabled:   o.PaymentRatioEnabled,
		DepositAmount:         o.DepositAmount,
		FinalPaymentAmount:    o.FinalPaymentAmount,
		Status:                o.Status,
		PaymentMethod:         o.PaymentMethod,
		PaidAt:                o.PaidAt,
		DepositPaymentMethod:  o.DepositPaymentMethod,
		DepositPaidAt:         o.DepositPaidAt,
		FinalPaymentMethod:    o.FinalPaymentMethod,
		FinalPaymentPaidAt:    o.FinalPaymentPaidAt,
		PaymentVerifiedAt:     o.PaymentVerifiedAt,
		PaymentVerifiedMethod: o.PaymentVerifiedMethod,
		PaymentVerifyNote:     o.PaymentVerifyNote,
		ShippedAt:             o.ShippedAt,
		CompletedAt:           o.CompletedAt,
		CancelledAt:           o.CancelledAt,

		NeedInvoice:     o.NeedInvoice,
		InvoiceStatus:   o.InvoiceStatus,
		InvoiceIssuedAt: o.InvoiceIssuedAt,

		SettlementMode:            o.SettlementMode,
		CommissionAmount:          o.CommissionAmount,
		CommissionStatus:          o.CommissionStatus,
		CommissionAppliedAt:       o.CommissionAppliedAt,
		CommissionApprovedAt:      o.CommissionApprovedAt,
		CommissionPaidAt:          o.CommissionPaidAt,
		CommissionInvoiceURL:      o.CommissionInvoiceURL,
		CommissionPaymentProofURL: o.CommissionPaymentProofURL,
		CommissionPaymentRemark:   o.CommissionPaymentRemark,

		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}

	for _, entry := range o.ActivityLogs {
		detail.ActivityLogs = append(detail.ActivityLogs, ActivityLogItem{
			Action:    entry.Action,
			Details:   entry.Details,
			Operator:  entry.Operator,
			Timestamp: entry.CreatedAt,
		})
	}

	return detail
}
