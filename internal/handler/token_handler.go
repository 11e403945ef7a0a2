package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cts/internal/logic"
	"github.com/gin-gonic/gin"
)

// TokenHandler 代币操作处理器
type TokenHandler struct {
	crowdsaleLogic *logic.CrowdsaleLogic
}

// NewTokenHandler 创建代币操作处理器
func NewTokenHandler(crowdsaleLogic *logic.CrowdsaleLogic) *TokenHandler {
	return &TokenHandler{crowdsaleLogic: crowdsaleLogic}
}

// Transfer 代币转账
func (h *TokenHandler) Transfer(c *gin.Context) {
	var req TokenTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.TokenTransfer(req.From, req.To, req.Amount); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "转账成功", nil)
}

// Approve 设置授权额度
func (h *TokenHandler) Approve(c *gin.Context) {
	var req TokenApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.TokenApprove(req.Owner, req.Spender, req.Amount); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "授权成功", nil)
}

// TransferFrom 通过授权额度转账
func (h *TokenHandler) TransferFrom(c *gin.Context) {
	var req TokenTransferFromRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.TokenTransferFrom(req.Spender, req.From, req.To, req.Amount); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "转账成功", nil)
}

// Mint 增发代币
func (h *TokenHandler) Mint(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.Mint(req.Caller, req.To, req.Amount); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "增发成功", nil)
}

// Airdrop 空投
func (h *TokenHandler) Airdrop(c *gin.Context) {
	var req AirdropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.Airdrop(req.Caller, req.Recipients, req.Amount); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "空投完成", nil)
}

// EnablePublicTransfers 开启公开转账
func (h *TokenHandler) EnablePublicTransfers(c *gin.Context) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.EnablePublicTransfers(req.Caller); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "公开转账已开启", nil)
}

// CreateLock 给所有者代币加时间锁
func (h *TokenHandler) CreateLock(c *gin.Context) {
	var req TokenLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	index, err := h.crowdsaleLogic.AddTokenLock(req.Caller, req.Amount, req.ReleaseTime)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "时间锁已创建", gin.H{"index": index})
}

// ReleaseLock 释放指定时间锁
func (h *TokenHandler) ReleaseLock(c *gin.Context) {
	var req ReleaseLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.crowdsaleLogic.ReleaseLock(req.Caller, req.Index); err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "时间锁已释放", nil)
}

// GetLocks 获取时间锁列表
func (h *TokenHandler) GetLocks(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.crowdsaleLogic.Locks())
}

// GetBalance 获取地址余额
func (h *TokenHandler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		ErrorResponse(c, http.StatusBadRequest, "地址不能为空")
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"address": address,
		"balance": h.crowdsaleLogic.Balance(address),
	})
}

// GetAllowance 获取剩余授权额度
func (h *TokenHandler) GetAllowance(c *gin.Context) {
	owner := c.Query("owner")
	spender := c.Query("spender")
	if owner == "" || spender == "" {
		ErrorResponse(c, http.StatusBadRequest, "owner和spender不能为空")
		return
	}
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"owner":     owner,
		"spender":   spender,
		"allowance": h.crowdsaleLogic.Allowance(owner, spender),
	})
}

// parsePageQuery 解析分页参数
func parsePageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
