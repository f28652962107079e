package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"weblidercontrol/internal/domain"

	"github.com/lib/pq"
)

// PostgresRoundsRepository 巡检规则 Repository 实现（rounds + round_checkpoints）
type PostgresRoundsRepository struct {
	db *sql.DB
}

// NewPostgresRoundsRepository 创建巡检规则 Repository
func NewPostgresRoundsRepository(db *sql.DB) *PostgresRoundsRepository {
	return &PostgresRoundsRepository{db: db}
}

// 确保实现了接口
var _ RoundsRepository = (*PostgresRoundsRepository)(nil)

const selectRoundColumns = `
		SELECT
			round_id,
			name,
			client,
			site,
			scheduled_time,
			tolerance,
			tolerance_unit,
			frequency,
			created_at
		FROM rounds`

const selectCheckpointColumns = `
		SELECT
			round_id,
			name,
			qr_code,
			requires_question,
			questions
		FROM round_checkpoints`

// ListRounds 获取全部巡检规则及其巡检点
func (r *PostgresRoundsRepository) ListRounds(ctx context.Context) ([]*domain.RoundDefinition, error) {
	rows, err := r.db.QueryContext(ctx, selectRoundColumns+`
		ORDER BY round_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*domain.RoundDefinition
	byID := make(map[string]*domain.RoundDefinition)
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
		byID[round.ID] = round
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}
	if len(rounds) == 0 {
		return rounds, nil
	}

	// 一次性加载全部巡检点，按 position 保持顺序
	cpRows, err := r.db.QueryContext(ctx, selectCheckpointColumns+`
		ORDER BY round_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list round checkpoints: %w", err)
	}
	defer cpRows.Close()

	for cpRows.Next() {
		roundID, cp, err := scanCheckpoint(cpRows)
		if err != nil {
			return nil, err
		}
		if round, ok := byID[roundID]; ok {
			round.Checkpoints = append(round.Checkpoints, cp)
		}
	}
	if err := cpRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate round checkpoints: %w", err)
	}

	return rounds, nil
}

// GetRound 获取单个巡检规则
func (r *PostgresRoundsRepository) GetRound(ctx context.Context, roundID string) (*domain.RoundDefinition, error) {
	if roundID == "" {
		return nil, ErrNotFound
	}

	round, err := scanRound(r.db.QueryRowContext(ctx, selectRoundColumns+`
		WHERE round_id = $1`, roundID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("round %s: %w", roundID, ErrNotFound)
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectCheckpointColumns+`
		WHERE round_id = $1
		ORDER BY position`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round checkpoints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		_, cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		round.Checkpoints = append(round.Checkpoints, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate round checkpoints: %w", err)
	}

	return round, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(s rowScanner) (*domain.RoundDefinition, error) {
	var round domain.RoundDefinition
	var name, client, site, scheduledTime, unit, frequency sql.NullString
	var tolerance sql.NullFloat64
	var createdAt sql.NullTime

	if err := s.Scan(
		&round.ID,
		&name,
		&client,
		&site,
		&scheduledTime,
		&tolerance,
		&unit,
		&frequency,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}

	round.Name = name.String
	round.Client = client.String
	round.Site = site.String
	round.ScheduledTime = scheduledTime.String
	round.ToleranceUnit = unit.String
	round.Frequency = frequency.String
	if tolerance.Valid {
		v := tolerance.Float64
		round.Tolerance = &v
	}
	if createdAt.Valid {
		round.CreatedAt = createdAt.Time
	}
	return &round, nil
}

func scanCheckpoint(s rowScanner) (string, domain.Checkpoint, error) {
	var roundID string
	var cp domain.Checkpoint
	var name, qrCode sql.NullString
	var questions []string

	if err := s.Scan(&roundID, &name, &qrCode, &cp.RequiresQuestion, pq.Array(&questions)); err != nil {
		return "", cp, fmt.Errorf("failed to scan round checkpoint: %w", err)
	}
	cp.Name = name.String
	cp.QRCode = qrCode.String
	cp.Questions = questions
	return roundID, cp, nil
}
