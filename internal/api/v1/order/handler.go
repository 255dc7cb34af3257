package order

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"xiaodiyanxuan-backend/internal/models"
	"xiaodiyanxuan-backend/internal/repository"
	"xiaodiyanxuan-backend/internal/services"
	"xiaodiyanxuan-backend/internal/utils"
)

type Handler struct {
	orders      *services.OrderService
	commissions *services.CommissionService
}

func NewHandler(orders *services.OrderService, commissions *services.CommissionService) *Handler {
	return &Handler{orders: orders, commissions: commissions}
}

// CreateOrder 创建订单（结算页下单）
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	params := services.CreateOrderParams{
		UserID:           currentUserID(c),
		TotalAmount:      req.TotalAmount,
		PaymentRatio:     req.PaymentRatio,
		NeedInvoice:      req.NeedInvoice,
		SettlementMode:   req.SettlementMode,
		CommissionAmount: req.CommissionAmount,
		Items:            datatypes.JSON(req.Items),
	}

	created, err := h.orders.CreateOrder(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("订单创建成功", toOrderDetail(created)))
}

// ListOrders 订单列表（后台）
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	filter := repository.OrderFilter{Page: page, Limit: limit}

	if statusStr, exists := c.GetQuery("status"); exists {
		if status, err := strconv.Atoi(statusStr); err == nil {
			filter.Status = &status
		}
	}
	if orderNo, exists := c.GetQuery("orderNo"); exists {
		filter.OrderNo = &orderNo
	}
	if userIDStr, exists := c.GetQuery("userId"); exists {
		if userID, err := strconv.Atoi(userIDStr); err == nil {
			uid := uint(userID)
			filter.UserID = &uid
		}
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]OrderDetail, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderDetail(&orders[i]))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", OrderListResponse{
		Orders: items,
		Total:  total,
		Page:   page,
		Limit:  limit,
	}))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	detail, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", toOrderDetail(detail)))
}

// Pay 提交支付（全款/定金/尾款由订单状态和定金开关决定）
func (h *Handler) Pay(c *gin.Context) {
	var req PayRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := h.orders.Pay(c.Request.Context(), c.Param("id"), req.PaymentMethod, operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("支付已提交", toOrderDetail(updated)))
}

// VerifyPayment 卖家核款
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := h.orders.VerifyPayment(c.Request.Context(), c.Param("id"), req.PaymentMethod, req.VerifyNote, operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("核款成功", toOrderDetail(updated)))
}

// Cancel 取消订单。POST 和 PUT 都指向这里。
func (h *Handler) Cancel(c *gin.Context) {
	updated, err := h.orders.Cancel(c.Request.Context(), c.Param("id"), operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("订单已取消", toOrderDetail(updated)))
}

// Confirm 确认收货
func (h *Handler) Confirm(c *gin.Context) {
	updated, err := h.orders.Confirm(c.Request.Context(), c.Param("id"), operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("订单已完成", toOrderDetail(updated)))
}

// Ship 发货
func (h *Handler) Ship(c *gin.Context) {
	updated, err := h.orders.Ship(c.Request.Context(), c.Param("id"), operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("订单已发货", toOrderDetail(updated)))
}

// RequestFinalPayment 发起尾款收款
func (h *Handler) RequestFinalPayment(c *gin.Context) {
	updated, err := h.orders.RequestFinalPayment(c.Request.Context(), c.Param("id"), operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("已通知买家支付尾款", toOrderDetail(updated)))
}

// UpdateInvoiceStatus 更新发票状态
func (h *Handler) UpdateInvoiceStatus(c *gin.Context) {
	var req UpdateInvoiceStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := h.orders.UpdateInvoiceStatus(c.Request.Context(), c.Param("id"), req.InvoiceStatus, operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("发票状态已更新", toOrderDetail(updated)))
}

// ApplyCommission 申请佣金
func (h *Handler) ApplyCommission(c *gin.Context) {
	var req ApplyCommissionRequest
	// 请求体可省略，空体按零值处理
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("参数校验失败"))
		return
	}

	updated, err := h.commissions.Apply(c.Request.Context(), c.Param("id"), req.InvoiceURL, operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("佣金申请已提交", toOrderDetail(updated)))
}

// ApproveCommission 审核佣金申请
func (h *Handler) ApproveCommission(c *gin.Context) {
	updated, err := h.commissions.Approve(c.Request.Context(), c.Param("id"), operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("佣金申请已审核", toOrderDetail(updated)))
}

// PayCommission 佣金打款
func (h *Handler) PayCommission(c *gin.Context) {
	var req PayCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("参数校验失败"))
		return
	}

	updated, err := h.commissions.Pay(c.Request.Context(), c.Param("id"), req.PaymentProofURL, req.Remark, operatorName(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("佣金已打款", toOrderDetail(updated)))
}

// CommissionStats 佣金统计看板
func (h *Handler) CommissionStats(c *gin.Context) {
	stats, err := h.commissions.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", stats))
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse("订单不存在"))
	case errors.Is(err, services.ErrOrderStateConflict):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("当前订单状态不允许该操作"))
	case errors.Is(err, services.ErrInvoiceNotNeeded):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("该订单无需开票"))
	case errors.Is(err, services.ErrInvalidInvoiceStatus):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("无效的发票状态"))
	case errors.Is(err, services.ErrInvalidPaymentMethod):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("无效的支付方式"))
	default:
		zap.L().Error("order operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("服务器内部错误"))
	}
}

// operatorName 从上游认证中间件注入的用户信息取操作者名，用于操作日志
func operatorName(c *gin.Context) string {
	if userVal, exists := c.Get("user"); exists {
		if u, ok := userVal.(models.User); ok {
			return u.Username
		}
	}
	return "system"
}

func currentUserID(c *gin.Context) uint {
	if userVal, exists := c.Get("user"); exists {
		if u, ok := userVal.(models.User); ok {
			return u.ID
		}
	}
	return 0
}
