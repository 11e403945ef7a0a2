package model

import (
	"time"
)

// 操作执行状态
const (
	OperationStatusOK     = "ok"
	OperationStatusFailed = "failed"
)

// OperationRecordModel 操作日志
//
// 每个引擎操作（含失败的）按序号追加一条，记录操作参数和执行时刻。
// 最近一次快照之后的日志按序重放即可恢复引擎状态。
type OperationRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Seq       int64  `json:"seq" gorm:"uniqueIndex;not null"`
	Kind      string `json:"kind" gorm:"not null"`
	Params    string `json:"params" gorm:"type:text"`
	Timestamp int64  `json:"timestamp" gorm:"not null"` // 操作执行时刻，重放时复用
	Status    string `json:"status" gorm:"not null"`
	ErrorCode string `json:"error_code"`
}

// TableName 自定义表名
func (OperationRecordModel) TableName() string {
	return "operation_record"
}
