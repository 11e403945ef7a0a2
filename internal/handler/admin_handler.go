package handler

import (
	"net/http"

	"github.com/blues/cts/internal/ledger"
	"github.com/blues/cts/internal/logic"
	"github.com/gin-gonic/gin"
)

// AdminHandler 众筹管理处理器
type AdminHandler struct {
	crowdsaleLogic *logic.CrowdsaleLogic
}

// NewAdminHandler 创建众筹管理处理器
func NewAdminHandler(crowdsaleLogic *logic.CrowdsaleLogic) *AdminHandler {
	return &AdminHandler{crowdsaleLogic: crowdsaleLogic}
}

// StartCrowdsale 启动众筹
func (h *AdminHandler) StartCrowdsale(c *gin.Context) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.Start(req.Caller); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "众筹已启动", nil)
}

// PauseCrowdsale 暂停众筹
func (h *AdminHandler) PauseCrowdsale(c *gin.Context) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.Pause(req.Caller); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "众筹已暂停", nil)
}

// UnpauseCrowdsale 恢复众筹
func (h *AdminHandler) UnpauseCrowdsale(c *gin.Context) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.Unpause(req.Caller); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "众筹已恢复", nil)
}

// EndCrowdsale 结束众筹
func (h *AdminHandler) EndCrowdsale(c *gin.Context) {
	var req EndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.crowdsaleLogic.End(req.Caller, req.Success)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "众筹已结束", gin.H{
		"success":            result.Success,
		"beneficiary_payout": result.BeneficiaryPayout.String(),
		"leftover":           result.Leftover.String(),
	})
}

// IdentifyParticipant 标记参与者已通过身份验证
func (h *AdminHandler) IdentifyParticipant(c *gin.Context) {
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.crowdsaleLogic.Identify(req.Caller, req.Address)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "参与者已验证", toIdentifyResponse(result))
}

// UnidentifyParticipant 撤销参与者身份验证标记
func (h *AdminHandler) UnidentifyParticipant(c *gin.Context) {
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.Unidentify(req.Caller, req.Address); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "验证标记已撤销", nil)
}

// BanParticipant 封禁参与者
func (h *AdminHandler) BanParticipant(c *gin.Context) {
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.Ban(req.Caller, req.Address); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "参与者已封禁", nil)
}

// UnbanParticipant 解除封禁
func (h *AdminHandler) UnbanParticipant(c *gin.Context) {
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.Unban(req.Caller, req.Address); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "封禁已解除", nil)
}

// RefundParticipant 失败结束后退还参与者净出资
func (h *AdminHandler) RefundParticipant(c *gin.Context) {
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	refunded, err := h.crowdsaleLogic.Refund(req.Caller, req.Address)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "净出资已退还", gin.H{"refunded": refunded})
}

// RefundSuspended 退还参与者全部挂起支付
func (h *AdminHandler) RefundSuspended(c *gin.Context) {
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	refunded, err := h.crowdsaleLogic.RefundSuspended(req.Caller, req.Address)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "挂起支付已退还", toRefundedSuspendedResponse(refunded))
}

// RefundSuspendedAll 退还全部参与者的挂起支付
func (h *AdminHandler) RefundSuspendedAll(c *gin.Context) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	refunded, err := h.crowdsaleLogic.RefundSuspendedAll(req.Caller)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "挂起支付已退还", toRefundedSuspendedResponse(refunded))
}

// BurnLeftover 销毁剩余配额的指定百分比
func (h *AdminHandler) BurnLeftover(c *gin.Context) {
	var req BurnLeftoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	burned, err := h.crowdsaleLogic.BurnLeftover(req.Caller, req.Percent)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "剩余配额已销毁", gin.H{"burned": burned})
}

// TransferFunds 向受益人划转资金
func (h *AdminHandler) TransferFunds(c *gin.Context) {
	var req TransferFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.TransferFunds(req.Caller, req.Amount); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "资金已划转", nil)
}

// SetTier 写入价格档位
func (h *AdminHandler) SetTier(c *gin.Context) {
	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.SetTier(req.Caller, req.Index, req.CumulativeCap, req.UnitPrice); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "档位已更新", nil)
}

// SetMinSale 更新最低支付金额
func (h *AdminHandler) SetMinSale(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.SetMinSale(req.Caller, req.Amount); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "最低支付金额已更新", nil)
}

// SetUnidentifiedLimit 更新未验证参与者累计支付上限
func (h *AdminHandler) SetUnidentifiedLimit(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.SetUnidentifiedLimit(req.Caller, req.Amount); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "未验证上限已更新", nil)
}

// SetSuspendPolicy 设置超限未验证支付的处理策略
func (h *AdminHandler) SetSuspendPolicy(c *gin.Context) {
	var req SuspendPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.SetSuspendPolicy(req.Caller, req.Suspend); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "挂起策略已更新", nil)
}

// CreateSnapshot 手动触发一次状态快照
func (h *AdminHandler) CreateSnapshot(c *gin.Context) {
	seq, err := h.crowdsaleLogic.Snapshot()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "快照已写入", gin.H{"operation_seq": seq})
}

// toIdentifyResponse 将身份验证结果转换为响应模型
func toIdentifyResponse(result *ledger.IdentifyResult) gin.H {
	processed := make([]gin.H, 0, len(result.Processed))
	for _, p := range result.Processed {
		processed = append(processed, gin.H{
			"id":        p.ID,
			"tokens":    p.Tokens.String(),
			"consumed":  p.Consumed.String(),
			"remainder": p.Remainder.String(),
			"external":  p.External,
			"reference": p.Reference,
		})
	}
	return gin.H{"processed": processed, "kept": result.Kept}
}

// toRefundedSuspendedResponse 将挂起退款结果转换为响应模型
func toRefundedSuspendedResponse(refunded []ledger.RefundedSuspended) []gin.H {
	out := make([]gin.H, 0, len(refunded))
	for _, r := range refunded {
		out = append(out, gin.H{
			"participant": r.Participant.Hex(),
			"id":          r.ID,
			"amount":      r.Amount.String(),
			"external":    r.External,
			"reference":   r.Reference,
		})
	}
	return out
}
