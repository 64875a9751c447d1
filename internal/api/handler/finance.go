package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/gym_go_server/internal/api/middleware"
	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/export"
	"github.com/qs3c/gym_go_server/internal/pkg/response"
	"github.com/qs3c/gym_go_server/internal/service"
)

type FinanceHandler struct {
	billingService *service.BillingService
	financeService *service.FinanceService
}

func NewFinanceHandler(billingService *service.BillingService, financeService *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{
		billingService: billingService,
		financeService: financeService,
	}
}

// ListPayments 账单列表
// GET /api/v1/finance/payments
func (h *FinanceHandler) ListPayments(c *gin.Context) {
	var req dto.PaymentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.financeService.ListPayments(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, req.Page, req.PageSize, items)
}

// GetPayment 账单详情
// GET /api/v1/finance/payments/:id
func (h *FinanceHandler) GetPayment(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的账单ID")
	if !ok {
		return
	}

	info, err := h.financeService.GetPayment(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, info)
}

// RecordPayment 登记收款
// POST /api/v1/finance/payments
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	payment, err := h.billingService.RecordPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondPayment(c, "收款已登记", payment, true)
}

// UpdatePayment 更新账单；status 改为 paid 时按收款处理
// PUT /api/v1/finance/payments/:id
func (h *FinanceHandler) UpdatePayment(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的账单ID")
	if !ok {
		return
	}

	var req dto.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	payment, err := h.billingService.UpdatePayment(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondPayment(c, "更新成功", payment, false)
}

// PayPayment 将待支付账单标记为已支付
// POST /api/v1/finance/payments/:id/pay
func (h *FinanceHandler) PayPayment(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的账单ID")
	if !ok {
		return
	}

	var req dto.PayPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, err.Error())
			return
		}
	}

	payment, err := h.billingService.PayPayment(c.Request.Context(), id, req.PaymentMethod, req.PaymentDate)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondPayment(c, "账单已支付", payment, false)
}

// CancelPayment 取消账单
// POST /api/v1/finance/payments/:id/cancel
func (h *FinanceHandler) CancelPayment(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的账单ID")
	if !ok {
		return
	}

	payment, err := h.billingService.CancelPayment(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondPayment(c, "账单已取消", payment, false)
}

// RequestPayment 向学员发起账单
// POST /api/v1/finance/request-payment
func (h *FinanceHandler) RequestPayment(c *gin.Context) {
	var req dto.RequestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	payment, err := h.billingService.RequestPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, "账单已发送", &dto.RequestPaymentResponse{
		Success:   true,
		Message:   "账单已发送",
		PaymentID: payment.ID,
	})
}

// CheckRenewals 立即生成到期套餐的续费账单
// POST /api/v1/finance/check-renewals
func (h *FinanceHandler) CheckRenewals(c *gin.Context) {
	result, err := h.billingService.CheckRenewals(c.Request.Context(), time.Time{})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, &dto.ProcessedResponse{
		Message:   "续费检查完成",
		Processed: result.Processed,
	})
}

// Summary 财务汇总
// GET /api/v1/finance/summary
func (h *FinanceHandler) Summary(c *gin.Context) {
	summary, err := h.financeService.Summary()
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, summary)
}

// Export 导出账单 xlsx
// GET /api/v1/finance/payments/export
func (h *FinanceHandler) Export(c *gin.Context) {
	var req dto.PaymentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	var buf bytes.Buffer
	if _, err := h.financeService.Export(&buf, &req); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("payments-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// MyPayments 学员查看自己的账单
// GET /api/v1/finance/my-payments
func (h *FinanceHandler) MyPayments(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.PaymentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.financeService.MyPayments(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, req.Page, req.PageSize, items)
}

// respondPayment 写入成功后按列表格式返回账单
func (h *FinanceHandler) respondPayment(c *gin.Context, message string, payment *model.Payment, created bool) {
	info, err := h.financeService.GetPayment(payment.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if created {
		response.Created(c, message, info)
		return
	}
	response.SuccessWithMessage(c, message, info)
}
