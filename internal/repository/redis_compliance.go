package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"weblidercontrol/internal/domain"
	"weblidercontrol/internal/store"
)

// RedisComplianceRepository 基于 Redis 的合规记录仓库
// 记录以 JSON 存在 {prefix}record:{id}，create-only 由 Lua 脚本原子判断；
// 另维护按巡检、按日期的索引集合供查询使用
type RedisComplianceRepository struct {
	kv     store.KV
	prefix string
}

// NewRedisComplianceRepository prefix 为空时使用 "rondas:compliance:"
func NewRedisComplianceRepository(kv store.KV, prefix string) *RedisComplianceRepository {
	if prefix == "" {
		prefix = "rondas:compliance:"
	}
	return &RedisComplianceRepository{kv: kv, prefix: prefix}
}

var _ ComplianceRepository = (*RedisComplianceRepository)(nil)

func (r *RedisComplianceRepository) recordKey(id string) string { return r.prefix + "record:" + id }
func (r *RedisComplianceRepository) roundIndexKey(roundID string) string {
	return r.prefix + "index:round:" + roundID
}
func (r *RedisComplianceRepository) dateIndexKey(date string) string {
	return r.prefix + "index:date:" + date
}

// occurrenceKey 与 Postgres 唯一索引对应的占位 key
func (r *RedisComplianceRepository) occurrenceKey(rec *domain.ComplianceRecord) string {
	return r.prefix + "occurrence:" + rec.RoundID + ":" + rec.Date + ":" + rec.ScheduledTimeLabel
}

func (r *RedisComplianceRepository) GetRecord(ctx context.Context, recordID string) (*domain.ComplianceRecord, error) {
	raw, err := r.kv.Get(ctx, r.recordKey(recordID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, fmt.Errorf("compliance record %s: %w", recordID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get compliance record: %w", err)
	}
	var rec domain.ComplianceRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal compliance record %s: %w", recordID, err)
	}
	return &rec, nil
}

func (r *RedisComplianceRepository) CreateRecord(ctx context.Context, rec *domain.ComplianceRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("record_id is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal compliance record: %w", err)
	}

	// 发生占位、记录本身和两个索引一次原子写入，失败时不留下部分状态
	created, err := r.kv.CreateIndexed(ctx,
		r.occurrenceKey(rec), rec.ID,
		r.recordKey(rec.ID), string(data),
		rec.ID,
		r.roundIndexKey(rec.RoundID), r.dateIndexKey(rec.Date),
	)
	if err != nil {
		return fmt.Errorf("failed to create compliance record: %w", err)
	}
	if !created {
		return fmt.Errorf("compliance record %s: %w", rec.ID, ErrAlreadyExists)
	}
	return nil
}

func (r *RedisComplianceRepository) FindRecords(ctx context.Context, filter ComplianceFilter) ([]*domain.ComplianceRecord, error) {
	var indexKey string
	switch {
	case filter.Date != "":
		indexKey = r.dateIndexKey(filter.Date)
	case filter.RoundID != "":
		indexKey = r.roundIndexKey(filter.RoundID)
	default:
		return nil, fmt.Errorf("filter requires round_id or date")
	}

	records, err := r.loadIndexed(ctx, indexKey)
	if err != nil {
		return nil, err
	}
	out := records[:0]
	for _, rec := range records {
		if matchesFilter(rec, filter) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (r *RedisComplianceRepository) LatestRecordForRound(ctx context.Context, roundID string) (*domain.ComplianceRecord, error) {
	records, err := r.FindRecords(ctx, ComplianceFilter{RoundID: roundID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("compliance record for round %s: %w", roundID, ErrNotFound)
	}
	return records[len(records)-1], nil
}

func (r *RedisComplianceRepository) ListRecordsByDate(ctx context.Context, date string) ([]*domain.ComplianceRecord, error) {
	return r.FindRecords(ctx, ComplianceFilter{Date: date})
}

func (r *RedisComplianceRepository) loadIndexed(ctx context.Context, indexKey string) ([]*domain.ComplianceRecord, error) {
	ids, err := r.kv.SMembers(ctx, indexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read compliance index: %w", err)
	}
	records := make([]*domain.ComplianceRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.GetRecord(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
