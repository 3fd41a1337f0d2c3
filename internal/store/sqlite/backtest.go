package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"marlin/internal/backtest"
	"marlin/internal/store/model"
)

// InsertRun 创建回测任务记录。
func (s *Store) InsertRun(ctx context.Context, run backtest.Run) error {
	row, err := runToModel(run)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// UpdateRun 回写回测任务的状态与指标。
func (s *Store) UpdateRun(ctx context.Context, run backtest.Run) error {
	row, err := runToModel(run)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&model.BacktestRunModel{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":       row.Status,
			"candles":      row.Candles,
			"message":      row.Message,
			"metrics_json": row.MetricsJSON,
			"completed_at": row.CompletedAtUnix,
		}).Error
}

// GetRun 返回指定回测任务；不存在时返回 (nil, nil)。
func (s *Store) GetRun(ctx context.Context, id string) (*backtest.Run, error) {
	var row model.BacktestRunModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run, err := runFromModel(row)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns 按创建时间倒序列出回测任务。
func (s *Store) ListRuns(ctx context.Context, limit int) ([]backtest.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []model.BacktestRunModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	runs := make([]backtest.Run, 0, len(rows))
	for _, row := range rows {
		run, err := runFromModel(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// InsertBacktestTrades 批量写入一次回测的模拟流水。
func (s *Store) InsertBacktestTrades(ctx context.Context, runID string, trades []backtest.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	rows := make([]model.BacktestTradeModel, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, model.BacktestTradeModel{
			RunID:      runID,
			Action:     t.Action,
			Price:      t.Price,
			Quantity:   t.Quantity,
			TotalValue: t.TotalValue,
			Pnl:        t.Pnl,
			Reason:     t.Reason,
			Timestamp:  t.Timestamp,
		})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// BacktestTrades 返回一次回测按时间排序的流水。
func (s *Store) BacktestTrades(ctx context.Context, runID string) ([]backtest.Trade, error) {
	var rows []model.BacktestTradeModel
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	trades := make([]backtest.Trade, 0, len(rows))
	for _, row := range rows {
		trades = append(trades, backtest.Trade{
			Action:     row.Action,
			Price:      row.Price,
			Quantity:   row.Quantity,
			TotalValue: row.TotalValue,
			Pnl:        row.Pnl,
			Reason:     row.Reason,
			Timestamp:  row.Timestamp,
		})
	}
	return trades, nil
}

func runToModel(run backtest.Run) (*model.BacktestRunModel, error) {
	metrics, err := json.Marshal(run.Metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics failed: %w", err)
	}
	row := &model.BacktestRunModel{
		ID:            run.ID,
		Symbol:        run.Symbol,
		Status:        run.Status,
		Candles:       run.Candles,
		Message:       run.Message,
		MetricsJSON:   datatypes.JSON(metrics),
		CreatedAtUnix: run.CreatedAt.UnixMilli(),
	}
	if !run.CompletedAt.IsZero() {
		row.CompletedAtUnix = run.CompletedAt.UnixMilli()
	}
	return row, nil
}

func runFromModel(row model.BacktestRunModel) (backtest.Run, error) {
	run := backtest.Run{
		ID:        row.ID,
		Symbol:    row.Symbol,
		Status:    row.Status,
		Candles:   row.Candles,
		Message:   row.Message,
		CreatedAt: time.UnixMilli(row.CreatedAtUnix),
	}
	if row.CompletedAtUnix > 0 {
		run.CompletedAt = time.UnixMilli(row.CompletedAtUnix)
	}
	if len(row.MetricsJSON) > 0 {
		if err := json.Unmarshal(row.MetricsJSON, &run.Metrics); err != nil {
			return backtest.Run{}, fmt.Errorf("unmarshal metrics failed: %w", err)
		}
	}
	return run, nil
}
