package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"weblidercontrol/internal/domain"
)

// PostgresComplianceRepository 合规记录 Repository 实现
// create-only 通过 INSERT ... ON CONFLICT DO NOTHING 实现，同一 key 多个写入方只有一个生效
type PostgresComplianceRepository struct {
	db *sql.DB
}

// NewPostgresComplianceRepository 创建合规记录 Repository
func NewPostgresComplianceRepository(db *sql.DB) *PostgresComplianceRepository {
	return &PostgresComplianceRepository{db: db}
}

var _ ComplianceRepository = (*PostgresComplianceRepository)(nil)

const selectRecordColumns = `
		SELECT
			record_id,
			round_id,
			round_name,
			client,
			site,
			status,
			window_start,
			window_end,
			scheduled_time,
			tolerance,
			tolerance_unit,
			checkpoint_results,
			record_date,
			cadence,
			generated_automatically,
			created_at
		FROM compliance_records`

// GetRecord 按发生标识读取
func (r *PostgresComplianceRepository) GetRecord(ctx context.Context, recordID string) (*domain.ComplianceRecord, error) {
	if recordID == "" {
		return nil, ErrNotFound
	}

	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectRecordColumns+`
		WHERE record_id = $1`, recordID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("compliance record %s: %w", recordID, ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

// CreateRecord create-only 写入
func (r *PostgresComplianceRepository) CreateRecord(ctx context.Context, rec *domain.ComplianceRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("record_id is required")
	}
	if rec.RoundID == "" {
		return fmt.Errorf("round_id is required")
	}

	results, err := json.Marshal(rec.CheckpointResults)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint results: %w", err)
	}

	query := `
		INSERT INTO compliance_records (
			record_id,
			round_id,
			round_name,
			client,
			site,
			status,
			window_start,
			window_end,
			scheduled_time,
			tolerance,
			tolerance_unit,
			checkpoint_results,
			record_date,
			cadence,
			generated_automatically,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (record_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.RoundID,
		rec.RoundName,
		rec.Client,
		rec.Site,
		string(rec.Status),
		rec.WindowStart,
		rec.WindowEnd,
		rec.ScheduledTimeLabel,
		rec.Tolerance,
		rec.ToleranceUnit,
		results,
		rec.Date,
		rec.Cadence,
		rec.GeneratedAutomatically,
		rec.CreatedAt,
	)
	if err != nil {
		// (round_id, record_date, scheduled_time) 唯一索引冲突同样视为已存在
		if isUniqueViolation(err) {
			return fmt.Errorf("compliance record %s: %w", rec.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create compliance record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("compliance record %s: %w", rec.ID, ErrAlreadyExists)
	}
	return nil
}

// FindRecords 按条件查询
func (r *PostgresComplianceRepository) FindRecords(ctx context.Context, filter ComplianceFilter) ([]*domain.ComplianceRecord, error) {
	where := []string{"1 = 1"}
	args := []any{}
	argN := 1

	if filter.RoundID != "" {
		where = append(where, fmt.Sprintf("round_id = $%d", argN))
		args = append(args, filter.RoundID)
		argN++
	}
	if filter.Date != "" {
		where = append(where, fmt.Sprintf("record_date = $%d", argN))
		args = append(args, filter.Date)
		argN++
	}
	if filter.ScheduledTime != "" {
		where = append(where, fmt.Sprintf("scheduled_time = $%d", argN))
		args = append(args, filter.ScheduledTime)
		argN++
	}

	return r.queryRecords(ctx, selectRecordColumns+`
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY window_start, record_id`, args...)
}

// LatestRecordForRound 最近一次记录
func (r *PostgresComplianceRepository) LatestRecordForRound(ctx context.Context, roundID string) (*domain.ComplianceRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectRecordColumns+`
		WHERE round_id = $1
		ORDER BY window_start DESC, created_at DESC
		LIMIT 1`, roundID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("compliance record for round %s: %w", roundID, ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

// ListRecordsByDate 某天全部记录
func (r *PostgresComplianceRepository) ListRecordsByDate(ctx context.Context, date string) ([]*domain.ComplianceRecord, error) {
	return r.queryRecords(ctx, selectRecordColumns+`
		WHERE record_date = $1
		ORDER BY window_start, record_id`, date)
}

func (r *PostgresComplianceRepository) queryRecords(ctx context.Context, query string, args ...any) ([]*domain.ComplianceRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance records: %w", err)
	}
	defer rows.Close()

	records := []*domain.ComplianceRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate compliance records: %w", err)
	}
	return records, nil
}

func scanRecord(s rowScanner) (*domain.ComplianceRecord, error) {
	var rec domain.ComplianceRecord
	var status string
	var roundName, client, site, unit, cadence sql.NullString
	var tolerance sql.NullFloat64
	var results []byte

	if err := s.Scan(
		&rec.ID,
		&rec.RoundID,
		&roundName,
		&client,
		&site,
		&status,
		&rec.WindowStart,
		&rec.WindowEnd,
		&rec.ScheduledTimeLabel,
		&tolerance,
		&unit,
		&results,
		&rec.Date,
		&cadence,
		&rec.GeneratedAutomatically,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan compliance record: %w", err)
	}

	rec.Status = domain.ComplianceStatus(status)
	rec.RoundName = roundName.String
	rec.Client = client.String
	rec.Site = site.String
	rec.ToleranceUnit = unit.String
	rec.Cadence = cadence.String
	rec.Tolerance = tolerance.Float64

	if len(results) > 0 {
		if err := json.Unmarshal(results, &rec.CheckpointResults); err != nil {
			return nil, fmt.Errorf("failed to unmarshal checkpoint results: %w", err)
		}
	}
	return &rec, nil
}
