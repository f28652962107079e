package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"weblidercontrol/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockComplianceDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresComplianceRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresComplianceRepository(db)
}

var recordColumns = []string{
	"record_id", "round_id", "round_name", "client", "site", "status",
	"window_start", "window_end", "scheduled_time", "tolerance", "tolerance_unit",
	"checkpoint_results", "record_date", "cadence", "generated_automatically", "created_at",
}

func sampleRecord() *domain.ComplianceRecord {
	start := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	return &domain.ComplianceRecord{
		ID:                 "r1_2025_06_01_0800",
		RoundID:            "r1",
		RoundName:          "Ronda Norte",
		Client:             "ACME",
		Site:               "Planta 1",
		Status:             domain.StatusNotDone,
		WindowStart:        start,
		WindowEnd:          start.Add(10 * time.Minute),
		ScheduledTimeLabel: "08:00",
		Tolerance:          10,
		ToleranceUnit:      "minutes",
		CheckpointResults: map[int]domain.CheckpointResult{
			0: {Name: "Puerta"},
		},
		Date:                   "2025-06-01",
		Cadence:                "minute",
		GeneratedAutomatically: true,
		CreatedAt:              start.Add(12 * time.Minute),
	}
}

func TestPostgresCompliance_CreateRecord(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	rec := sampleRecord()
	mock.ExpectExec(`INSERT INTO compliance_records`).
		WithArgs(rec.ID, rec.RoundID, rec.RoundName, rec.Client, rec.Site, "NOT_DONE",
			rec.WindowStart, rec.WindowEnd, "08:00", 10.0, "minutes",
			sqlmock.AnyArg(), "2025-06-01", "minute", true, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateRecord(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompliance_CreateRecord_ConflictDoNothing(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	mock.ExpectExec(`ON CONFLICT \(record_id\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CreateRecord(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompliance_CreateRecord_UniqueViolation(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO compliance_records`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.CreateRecord(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestPostgresCompliance_CreateRecord_Error(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO compliance_records`).WillReturnError(errors.New("timeout"))

	err := repo.CreateRecord(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAlreadyExists))
}

func TestPostgresCompliance_CreateRecord_Validation(t *testing.T) {
	db, _, repo := setupMockComplianceDB(t)
	defer db.Close()

	assert.Error(t, repo.CreateRecord(context.Background(), &domain.ComplianceRecord{}))
	assert.Error(t, repo.CreateRecord(context.Background(), &domain.ComplianceRecord{ID: "x"}))
}

func TestPostgresCompliance_GetRecord(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	rec := sampleRecord()
	mock.ExpectQuery(`FROM compliance_records`).
		WithArgs(rec.ID).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
			rec.ID, rec.RoundID, rec.RoundName, rec.Client, rec.Site, "COMPLETED",
			rec.WindowStart, rec.WindowEnd, "08:00", 10.0, "minutes",
			[]byte(`{"0":{"name":"Puerta","scanned":true,"photoUrl":null,"scannedAt":null}}`),
			"2025-06-01", nil, false, rec.CreatedAt,
		))

	got, err := repo.GetRecord(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 10*time.Minute, got.WindowEnd.Sub(got.WindowStart))
	require.Contains(t, got.CheckpointResults, 0)
	assert.True(t, got.CheckpointResults[0].Scanned)
	assert.Empty(t, got.Cadence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompliance_GetRecord_NotFound(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM compliance_records`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err := repo.GetRecord(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresCompliance_GetRecord_ReadError(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM compliance_records`).WillReturnError(errors.New("network down"))

	_, err := repo.GetRecord(context.Background(), "r1_2025_06_01_0800")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestPostgresCompliance_FindRecords(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	rec := sampleRecord()
	mock.ExpectQuery(`WHERE 1 = 1 AND round_id = \$1 AND record_date = \$2 AND scheduled_time = \$3`).
		WithArgs("r1", "2025-06-01", "08:00").
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
			"legacy-id", rec.RoundID, rec.RoundName, rec.Client, rec.Site, "COMPLETED",
			rec.WindowStart, rec.WindowEnd, "08:00", 10.0, "minutes",
			[]byte(`{}`), "2025-06-01", nil, false, rec.CreatedAt,
		))

	records, err := repo.FindRecords(context.Background(), ComplianceFilter{RoundID: "r1", Date: "2025-06-01", ScheduledTime: "08:00"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "legacy-id", records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompliance_LatestRecordForRound(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	mock.ExpectQuery(`ORDER BY window_start DESC`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err := repo.LatestRecordForRound(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompliance_ListRecordsByDate(t *testing.T) {
	db, mock, repo := setupMockComplianceDB(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE record_date = \$1`).
		WithArgs("2025-06-01").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := repo.ListRecordsByDate(context.Background(), "2025-06-01")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
