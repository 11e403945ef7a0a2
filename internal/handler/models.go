package handler

import (
	"time"

	"github.com/blues/cts/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 请求模型

// PaymentRequest 直接支付请求
type PaymentRequest struct {
	Address string `json:"address" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// ExternalPaymentRequest 外部渠道支付请求
type ExternalPaymentRequest struct {
	Caller      string `json:"caller" binding:"required"`
	Beneficiary string `json:"beneficiary" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Reference   string `json:"reference"`
	Checksum    string `json:"checksum" binding:"required"`
}

// CallerRequest 仅携带调用者的管理请求
type CallerRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// ParticipantRequest 针对单个参与者的管理请求
type ParticipantRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// EndRequest 结束众筹请求
type EndRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Success bool   `json:"success"`
}

// BurnLeftoverRequest 销毁剩余配额请求
type BurnLeftoverRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Percent int    `json:"percent" binding:"min=0,max=100"`
}

// TransferFundsRequest 向受益人划转资金请求
type TransferFundsRequest struct {
	Caller string `json:"caller" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// TierRequest 写入价格档位请求
type TierRequest struct {
	Caller        string `json:"caller" binding:"required"`
	Index         int    `json:"index" binding:"min=0"`
	CumulativeCap string `json:"cumulative_cap" binding:"required"`
	UnitPrice     string `json:"unit_price" binding:"required"`
}

// AmountRequest 更新单个金额参数的管理请求
type AmountRequest struct {
	Caller string `json:"caller" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// SuspendPolicyRequest 挂起策略请求
type SuspendPolicyRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Suspend bool   `json:"suspend"`
}

// TokenTransferRequest 代币转账请求
type TokenTransferRequest struct {
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// TokenApproveRequest 授权额度请求
type TokenApproveRequest struct {
	Owner   string `json:"owner" binding:"required"`
	Spender string `json:"spender" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// TokenTransferFromRequest 授权转账请求
type TokenTransferFromRequest struct {
	Spender string `json:"spender" binding:"required"`
	From    string `json:"from" binding:"required"`
	To      string `json:"to" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// MintRequest 增发请求
type MintRequest struct {
	Caller string `json:"caller" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// AirdropRequest 空投请求
type AirdropRequest struct {
	Caller     string   `json:"caller" binding:"required"`
	Recipients []string `json:"recipients" binding:"required"`
	Amount     string   `json:"amount" binding:"required"`
}

// TokenLockRequest 时间锁请求
type TokenLockRequest struct {
	Caller      string `json:"caller" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	ReleaseTime int64  `json:"release_time" binding:"required"`
}

// ReleaseLockRequest 释放时间锁请求
type ReleaseLockRequest struct {
	Caller string `json:"caller" binding:"required"`
	Index  int    `json:"index" binding:"min=0"`
}

// ExportEventsRequest 导出事件日志请求
type ExportEventsRequest struct {
	Path string `json:"path" binding:"required"`
}

// 响应模型

// PaymentResponse 支付处理响应
type PaymentResponse struct {
	Tokens      string `json:"tokens"`
	Consumed    string `json:"consumed"`
	Remainder   string `json:"remainder"`
	Suspended   bool   `json:"suspended"`
	SuspendedID uint64 `json:"suspended_id,omitempty"`
	Refunded    string `json:"refunded,omitempty"`
	Duplicate   bool   `json:"duplicate,omitempty"`
}

// EventRecordResponse 事件记录响应模型
type EventRecordResponse struct {
	ID           int64     `json:"id"`
	OperationSeq int64     `json:"operationSeq"`
	EventType    string    `json:"eventType"`
	Participant  string    `json:"participant,omitempty"`
	Data         string    `json:"data"`
	CreatedAt    time.Time `json:"createdAt"`
}

// OperationRecordResponse 操作日志响应模型
type OperationRecordResponse struct {
	Seq       int64     `json:"seq"`
	Kind      string    `json:"kind"`
	Params    string    `json:"params"`
	Timestamp int64     `json:"timestamp"`
	Status    string    `json:"status"`
	ErrorCode string    `json:"errorCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// 转换函数

// ToEventRecordResponse 将事件记录数据库模型转换为响应模型
func ToEventRecordResponse(record *model.EventRecordModel) EventRecordResponse {
	return EventRecordResponse{
		ID:           record.Id,
		OperationSeq: record.OperationSeq,
		EventType:    record.EventType,
		Participant:  record.Participant,
		Data:         record.Data,
		CreatedAt:    record.CreatedAt,
	}
}

// ToEventRecordResponseList 将事件记录列表转换为响应模型列表
func ToEventRecordResponseList(records []model.EventRecordModel) []EventRecordResponse {
	result := make([]EventRecordResponse, len(records))
	for i, record := range records {
		result[i] = ToEventRecordResponse(&record)
	}
	return result
}

// ToOperationRecordResponse 将操作日志数据库模型转换为响应模型
func ToOperationRecordResponse(record *model.OperationRecordModel) OperationRecordResponse {
	return OperationRecordResponse{
		Seq:       record.Seq,
		Kind:      record.Kind,
		Params:    record.Params,
		Timestamp: record.Timestamp,
		Status:    record.Status,
		ErrorCode: record.ErrorCode,
		CreatedAt: record.CreatedAt,
	}
}

// ToOperationRecordResponseList 将操作日志列表转换为响应模型列表
func ToOperationRecordResponseList(records []model.OperationRecordModel) []OperationRecordResponse {
	result := make([]OperationRecordResponse, len(records))
	for i, record := range records {
		result[i] = ToOperationRecordResponse(&record)
	}
	return result
}
