package sqlite

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"marlin/internal/store/model"
)

// BotState 返回某交易对的启停状态，不存在则视作启用并落库一行。
func (s *Store) BotState(ctx context.Context, symbol string) (*model.BotStateModel, error) {
	var state model.BotStateModel
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = model.BotStateModel{
			Symbol:        symbol,
			IsActive:      true,
			UpdatedAtUnix: time.Now().UnixMilli(),
		}
		if err := s.db.WithContext(ctx).Create(&state).Error; err != nil {
			return nil, err
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SetActive 更新启停标记。reason 只在停用时有意义。
func (s *Store) SetActive(ctx context.Context, symbol string, active bool, reason string) error {
	if _, err := s.BotState(ctx, symbol); err != nil {
		return err
	}
	updates := map[string]any{
		"is_active":       active,
		"disabled_reason": reason,
		"updated_at":      time.Now().UnixMilli(),
	}
	if active {
		updates["disabled_reason"] = ""
	}
	return s.db.WithContext(ctx).
		Model(&model.BotStateModel{}).
		Where("symbol = ?", symbol).
		Updates(updates).Error
}
