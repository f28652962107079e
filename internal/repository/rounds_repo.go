package repository

import (
	"context"

	"weblidercontrol/internal/domain"
)

// RoundsRepository 巡检规则只读仓库
type RoundsRepository interface {
	// ListRounds 获取全部巡检规则（getAll）
	ListRounds(ctx context.Context) ([]*domain.RoundDefinition, error)

	// GetRound 获取单个巡检规则，不存在时返回 ErrNotFound
	GetRound(ctx context.Context, roundID string) (*domain.RoundDefinition, error)
}
