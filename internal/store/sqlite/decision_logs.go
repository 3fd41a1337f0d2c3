package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"marlin/internal/decision"
	"marlin/internal/store/model"
)

// AppendDecisionRecords 将一次评估产出的审计记录批量落库。
func (s *Store) AppendDecisionRecords(ctx context.Context, symbol string, records []decision.Record) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	rows := make([]model.DecisionLogModel, 0, len(records))
	for _, rec := range records {
		row := model.DecisionLogModel{
			Symbol:    symbol,
			Level:     rec.Level,
			EventType: rec.EventType,
			Message:   rec.Message,
			Timestamp: now,
		}
		if rec.Details != nil {
			if raw, err := json.Marshal(rec.Details); err == nil {
				row.Details = datatypes.JSON(raw)
			}
		}
		rows = append(rows, row)
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// DecisionLogs 按时间倒序返回审计记录。
func (s *Store) DecisionLogs(ctx context.Context, symbol string, limit int) ([]model.DecisionLogModel, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []model.DecisionLogModel
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
