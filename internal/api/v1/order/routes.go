package order

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 挂载订单路由。买家操作走普通认证，
// 卖家/后台操作走管理员认证；路径保持 /api/orders 前缀不变。
func RegisterRoutes(r *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	orders := r.Group("/orders")
	orders.Use(authMiddleware)
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/pay", h.Pay)
		// 取消订单同时接受 POST 与 PUT，同一个处理函数
		orders.POST("/:id/cancel", h.Cancel)
		orders.PUT("/:id/cancel", h.Cancel)
		orders.POST("/:id/confirm", h.Confirm)
		orders.POST("/:id/commission/apply", h.ApplyCommission)
	}

	admin := r.Group("/orders")
	admin.Use(adminMiddleware)
	{
		admin.GET("", h.ListOrders)
		admin.GET("/commission-stats", h.CommissionStats)
		admin.POST("/:id/verify-payment", h.VerifyPayment)
		admin.POST("/:id/ship", h.Ship)
		admin.POST("/:id/request-final-payment", h.RequestFinalPayment)
		admin.PUT("/:id/invoice-status", h.UpdateInvoiceStatus)
		admin.POST("/:id/commission/approve", h.ApproveCommission)
		admin.POST("/:id/commission/pay", h.PayCommission)
	}
}
