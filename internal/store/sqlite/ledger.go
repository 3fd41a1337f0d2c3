package sqlite

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"marlin/internal/store/model"
)

// InsertTrade 追加一条实盘成交。
func (s *Store) InsertTrade(ctx context.Context, trade *model.TradeModel) error {
	return s.db.WithContext(ctx).Create(trade).Error
}

// LatestTrade 返回某交易对最近一条成交；无记录时返回 (nil, nil)。
// 调用方据此恢复当前仓位：最后一条是 buy 即持多，否则空仓。
func (s *Store) LatestTrade(ctx context.Context, symbol string) (*model.TradeModel, error) {
	var trade model.TradeModel
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC, id DESC").
		First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

// Trades 返回某交易对按时间倒序的成交流水。
func (s *Store) Trades(ctx context.Context, symbol string, limit int) ([]model.TradeModel, error) {
	if limit <= 0 {
		limit = 100
	}
	var trades []model.TradeModel
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

// RealizedPnlSince 汇总某时刻之后的卖出盈亏，熔断器以当地午夜为起点调用。
func (s *Store) RealizedPnlSince(ctx context.Context, symbol string, since time.Time) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).
		Model(&model.TradeModel{}).
		Where("symbol = ? AND action = ? AND timestamp >= ?", symbol, "sell", since.UnixMilli()).
		Select("COALESCE(SUM(pnl), 0)").
		Scan(&total).Error
	return total, err
}

// InsertSnapshot 追加一条组合快照。
func (s *Store) InsertSnapshot(ctx context.Context, snap *model.PortfolioSnapshotModel) error {
	return s.db.WithContext(ctx).Create(snap).Error
}

// LatestSnapshot 返回最近的组合快照；无记录时返回 (nil, nil)。
func (s *Store) LatestSnapshot(ctx context.Context, symbol string) (*model.PortfolioSnapshotModel, error) {
	var snap model.PortfolioSnapshotModel
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC, id DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
