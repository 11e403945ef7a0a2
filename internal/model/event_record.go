package model

import (
	"time"
)

// EventRecordModel 账本事件记录
//
// 引擎每次操作产生的事件随操作日志在同一事务里落库，
// OperationSeq指向产生该事件的操作。
type EventRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OperationSeq int64  `json:"operation_seq" gorm:"index;not null"`
	EventType    string `json:"event_type" gorm:"index;not null"`
	Participant  string `json:"participant" gorm:"index"`
	Data         string `json:"data" gorm:"type:text"`
}

// TableName 自定义表名
func (EventRecordModel) TableName() string {
	return "event_record"
}
