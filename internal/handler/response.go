package handler

import (
	"errors"
	"net/http"

	"github.com/blues/cts/internal/ledger"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// LedgerErrorResponse 账本错误响应，按错误分类映射HTTP状态码
func LedgerErrorResponse(c *gin.Context, err error) {
	var ledgerErr *ledger.Error
	if !errors.As(err, &ledgerErr) {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch ledgerErr.Kind {
	case ledger.KindValidation:
		status = http.StatusBadRequest
	case ledger.KindAuthorization:
		status = http.StatusForbidden
	case ledger.KindState, ledger.KindConsistency:
		status = http.StatusConflict
	}
	c.JSON(status, Response{
		Success: false,
		Message: ledgerErr.Message,
		Code:    ledgerErr.Code,
	})
}
