package logic

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/blues/cts/internal/model"
	"gorm.io/gorm"
)

// EventLogic 事件查询业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件查询业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// GetEvents 获取事件列表，支持按类型和参与者过滤
func (e *EventLogic) GetEvents(eventType, participant string, page, pageSize int) ([]model.EventRecordModel, int64, error) {
	var events []model.EventRecordModel
	var total int64

	// 构建查询条件
	query := e.db.Model(&model.EventRecordModel{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if participant != "" {
		query = query.Where("participant = ?", participant)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("operation_seq DESC, id DESC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}

	return events, total, nil
}

// GetOperationEvents 获取单个操作产生的全部事件
func (e *EventLogic) GetOperationEvents(operationSeq int64) ([]model.EventRecordModel, error) {
	var events []model.EventRecordModel
	if err := e.db.Where("operation_seq = ?", operationSeq).Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("获取操作事件失败: %w", err)
	}
	return events, nil
}

// GetOperations 获取操作日志列表
func (e *EventLogic) GetOperations(kind string, page, pageSize int) ([]model.OperationRecordModel, int64, error) {
	var operations []model.OperationRecordModel
	var total int64

	query := e.db.Model(&model.OperationRecordModel{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取操作总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("seq DESC").Find(&operations).Error; err != nil {
		return nil, 0, fmt.Errorf("获取操作日志失败: %w", err)
	}

	return operations, total, nil
}

// WriteEventLog 把全部事件按发生顺序导出为JSON文件，返回导出条数
func (e *EventLogic) WriteEventLog(path string) (int, error) {
	var events []model.EventRecordModel
	if err := e.db.Order("operation_seq ASC, id ASC").Find(&events).Error; err != nil {
		return 0, fmt.Errorf("读取事件列表失败: %w", err)
	}

	entries := make([]json.RawMessage, len(events))
	for i, ev := range events {
		entries[i] = json.RawMessage(ev.Data)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("序列化事件日志失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("写入事件日志文件失败: %w", err)
	}
	return len(events), nil
}

// GetOperation 按序号获取单个操作
func (e *EventLogic) GetOperation(seq int64) (*model.OperationRecordModel, error) {
	var operation model.OperationRecordModel
	if err := e.db.Where("seq = ?", seq).First(&operation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("操作不存在")
		}
		return nil, fmt.Errorf("获取操作失败: %w", err)
	}
	return &operation, nil
}
