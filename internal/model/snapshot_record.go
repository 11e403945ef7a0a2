package model

import (
	"time"
)

// SnapshotRecordModel 引擎状态快照
//
// OperationSeq是快照覆盖到的最后一个操作序号，其后的操作日志
// 重放在快照之上。
type SnapshotRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OperationSeq int64  `json:"operation_seq" gorm:"uniqueIndex;not null"`
	State        string `json:"state" gorm:"type:text;not null"`
}

// TableName 自定义表名
func (SnapshotRecordModel) TableName() string {
	return "snapshot_record"
}
