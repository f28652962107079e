package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockRoundsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresRoundsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresRoundsRepository(db)
}

var roundColumns = []string{
	"round_id", "name", "client", "site", "scheduled_time",
	"tolerance", "tolerance_unit", "frequency", "created_at",
}

var checkpointColumns = []string{"round_id", "name", "qr_code", "requires_question", "questions"}

func TestPostgresRounds_ListRounds(t *testing.T) {
	db, mock, repo := setupMockRoundsDB(t)
	defer db.Close()

	createdAt := time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM rounds`).
		WillReturnRows(sqlmock.NewRows(roundColumns).
			AddRow("r1", "Ronda Norte", "ACME", "Planta 1", "08:00", 10.0, "minutes", "DIARIO", createdAt).
			AddRow("r2", "Ronda Sur", nil, nil, nil, nil, nil, nil, nil))
	mock.ExpectQuery(`FROM round_checkpoints`).
		WillReturnRows(sqlmock.NewRows(checkpointColumns).
			AddRow("r1", "Puerta", "QR-1", true, "{\"¿Cerrada?\",Luces}").
			AddRow("r1", "Patio", "QR-2", false, nil).
			AddRow("r9", "Huérfano", "QR-9", false, nil))

	rounds, err := repo.ListRounds(context.Background())
	require.NoError(t, err)
	require.Len(t, rounds, 2)

	r1 := rounds[0]
	assert.Equal(t, "r1", r1.ID)
	assert.Equal(t, "08:00", r1.ScheduledTime)
	require.NotNil(t, r1.Tolerance)
	assert.Equal(t, 10.0, *r1.Tolerance)
	assert.Equal(t, createdAt, r1.CreatedAt)
	require.Len(t, r1.Checkpoints, 2)
	assert.Equal(t, "Puerta", r1.Checkpoints[0].Name)
	assert.Equal(t, []string{"¿Cerrada?", "Luces"}, r1.Checkpoints[0].Questions)
	assert.True(t, r1.Checkpoints[0].RequiresQuestion)
	assert.Equal(t, "QR-2", r1.Checkpoints[1].QRCode)

	r2 := rounds[1]
	assert.Empty(t, r2.ScheduledTime)
	assert.Nil(t, r2.Tolerance)
	assert.True(t, r2.CreatedAt.IsZero())
	assert.Empty(t, r2.Checkpoints)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRounds_ListRounds_Empty(t *testing.T) {
	db, mock, repo := setupMockRoundsDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM rounds`).WillReturnRows(sqlmock.NewRows(roundColumns))

	rounds, err := repo.ListRounds(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rounds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRounds_ListRounds_QueryError(t *testing.T) {
	db, mock, repo := setupMockRoundsDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM rounds`).WillReturnError(errors.New("connection reset"))

	_, err := repo.ListRounds(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list rounds")
}

func TestPostgresRounds_GetRound(t *testing.T) {
	db, mock, repo := setupMockRoundsDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM rounds`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(roundColumns).
			AddRow("r1", "Ronda Norte", "ACME", "Planta 1", "08:00", 1.5, "hours", "FINDE", time.Now()))
	mock.ExpectQuery(`FROM round_checkpoints`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(checkpointColumns).AddRow("r1", "Puerta", "QR-1", false, "{}"))

	round, err := repo.GetRound(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "FINDE", round.Frequency)
	assert.Equal(t, "hours", round.ToleranceUnit)
	require.Len(t, round.Checkpoints, 1)
	assert.Empty(t, round.Checkpoints[0].Questions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRounds_GetRound_NotFound(t *testing.T) {
	db, mock, repo := setupMockRoundsDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM rounds`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(roundColumns))

	_, err := repo.GetRound(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
