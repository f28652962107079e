package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"weblidercontrol/internal/domain"
)

// MemoryRoundsRepo 数据库未启用时使用的内存巡检规则仓库（本地联调 / 单测）
type MemoryRoundsRepo struct {
	mu     sync.RWMutex
	rounds map[string]domain.RoundDefinition
}

func NewMemoryRoundsRepo(rounds ...*domain.RoundDefinition) *MemoryRoundsRepo {
	r := &MemoryRoundsRepo{rounds: map[string]domain.RoundDefinition{}}
	for _, round := range rounds {
		r.Upsert(round)
	}
	return r
}

var _ RoundsRepository = (*MemoryRoundsRepo)(nil)

// Upsert 写入或替换巡检规则（仅供种子数据和测试使用）
func (r *MemoryRoundsRepo) Upsert(round *domain.RoundDefinition) {
	if round == nil || round.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds[round.ID] = copyRound(round)
}

func (r *MemoryRoundsRepo) ListRounds(_ context.Context) ([]*domain.RoundDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.RoundDefinition, 0, len(r.rounds))
	for _, round := range r.rounds {
		c := copyRound(&round)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRoundsRepo) GetRound(_ context.Context, roundID string) (*domain.RoundDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	round, ok := r.rounds[roundID]
	if !ok {
		return nil, fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	c := copyRound(&round)
	return &c, nil
}

func copyRound(round *domain.RoundDefinition) domain.RoundDefinition {
	c := *round
	if round.Tolerance != nil {
		v := *round.Tolerance
		c.Tolerance = &v
	}
	if round.Checkpoints != nil {
		c.Checkpoints = make([]domain.Checkpoint, len(round.Checkpoints))
		for i, cp := range round.Checkpoints {
			cp.Questions = append([]string(nil), cp.Questions...)
			c.Checkpoints[i] = cp
		}
	}
	return c
}
