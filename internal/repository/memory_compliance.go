package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"weblidercontrol/internal/domain"
)

// MemoryComplianceRepo 内存合规记录仓库；create-only 由互斥锁保证
type MemoryComplianceRepo struct {
	mu      sync.RWMutex
	records map[string]domain.ComplianceRecord
}

func NewMemoryComplianceRepo() *MemoryComplianceRepo {
	return &MemoryComplianceRepo{records: map[string]domain.ComplianceRecord{}}
}

var _ ComplianceRepository = (*MemoryComplianceRepo)(nil)

func (r *MemoryComplianceRepo) GetRecord(_ context.Context, recordID string) (*domain.ComplianceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[recordID]
	if !ok {
		return nil, fmt.Errorf("compliance record %s: %w", recordID, ErrNotFound)
	}
	c := copyRecord(&rec)
	return &c, nil
}

func (r *MemoryComplianceRepo) CreateRecord(_ context.Context, rec *domain.ComplianceRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("record_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("compliance record %s: %w", rec.ID, ErrAlreadyExists)
	}
	// 与 Postgres 的 (round_id, record_date, scheduled_time) 唯一索引保持一致
	for _, existing := range r.records {
		if existing.RoundID == rec.RoundID && existing.Date == rec.Date && existing.ScheduledTimeLabel == rec.ScheduledTimeLabel {
			return fmt.Errorf("compliance record %s: %w", rec.ID, ErrAlreadyExists)
		}
	}
	r.records[rec.ID] = copyRecord(rec)
	return nil
}

func (r *MemoryComplianceRepo) FindRecords(_ context.Context, filter ComplianceFilter) ([]*domain.ComplianceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.ComplianceRecord{}
	for _, rec := range r.records {
		if !matchesFilter(&rec, filter) {
			continue
		}
		c := copyRecord(&rec)
		out = append(out, &c)
	}
	sortRecords(out)
	return out, nil
}

func (r *MemoryComplianceRepo) LatestRecordForRound(ctx context.Context, roundID string) (*domain.ComplianceRecord, error) {
	records, _ := r.FindRecords(ctx, ComplianceFilter{RoundID: roundID})
	if len(records) == 0 {
		return nil, fmt.Errorf("compliance record for round %s: %w", roundID, ErrNotFound)
	}
	return records[len(records)-1], nil
}

func (r *MemoryComplianceRepo) ListRecordsByDate(ctx context.Context, date string) ([]*domain.ComplianceRecord, error) {
	return r.FindRecords(ctx, ComplianceFilter{Date: date})
}

// Len 当前记录数（测试用）
func (r *MemoryComplianceRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func matchesFilter(rec *domain.ComplianceRecord, filter ComplianceFilter) bool {
	if filter.RoundID != "" && rec.RoundID != filter.RoundID {
		return false
	}
	if filter.Date != "" && rec.Date != filter.Date {
		return false
	}
	if filter.ScheduledTime != "" && rec.ScheduledTimeLabel != filter.ScheduledTime {
		return false
	}
	return true
}

// sortRecords 按计划开始时间升序，同一时间按 ID
func sortRecords(records []*domain.ComplianceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].WindowStart.Equal(records[j].WindowStart) {
			return records[i].WindowStart.Before(records[j].WindowStart)
		}
		return records[i].ID < records[j].ID
	})
}

func copyRecord(rec *domain.ComplianceRecord) domain.ComplianceRecord {
	c := *rec
	if rec.CheckpointResults != nil {
		c.CheckpointResults = make(map[int]domain.CheckpointResult, len(rec.CheckpointResults))
		for k, v := range rec.CheckpointResults {
			c.CheckpointResults[k] = v
		}
	}
	return c
}
