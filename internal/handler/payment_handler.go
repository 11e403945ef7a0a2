package handler

import (
	"net/http"

	"github.com/blues/cts/internal/ledger"
	"github.com/blues/cts/internal/logic"
	"github.com/gin-gonic/gin"
)

// PaymentHandler 支付处理器
type PaymentHandler struct {
	crowdsaleLogic *logic.CrowdsaleLogic
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(crowdsaleLogic *logic.CrowdsaleLogic) *PaymentHandler {
	return &PaymentHandler{crowdsaleLogic: crowdsaleLogic}
}

// CreatePayment 处理一笔直接支付
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.crowdsaleLogic.Pay(req.Address, req.Amount)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "支付已处理", toPaymentResponse(result))
}

// CreateExternalPayment 登记一笔外部渠道支付
func (h *PaymentHandler) CreateExternalPayment(c *gin.Context) {
	var req ExternalPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.crowdsaleLogic.ProxyExchange(req.Caller, req.Beneficiary, req.Amount, req.Reference, req.Checksum)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "外部支付已登记", toPaymentResponse(result))
}

// GetExternalPayments 获取外部支付记录
func (h *PaymentHandler) GetExternalPayments(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.crowdsaleLogic.ExternalPayments())
}

// toPaymentResponse 将支付处理结果转换为响应模型
func toPaymentResponse(result *ledger.PaymentResult) PaymentResponse {
	resp := PaymentResponse{
		Tokens:      result.Tokens.String(),
		Consumed:    result.Consumed.String(),
		Remainder:   result.Remainder.String(),
		Suspended:   result.Suspended,
		SuspendedID: result.SuspendedID,
		Duplicate:   result.Duplicate,
	}
	if result.Refunded != nil {
		resp.Refunded = result.Refunded.String()
	}
	return resp
}
