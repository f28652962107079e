package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"weblidercontrol/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCompliance_CreateOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryComplianceRepo()

	rec := sampleRecord()
	require.NoError(t, repo.CreateRecord(ctx, rec))
	assert.ErrorIs(t, repo.CreateRecord(ctx, rec), ErrAlreadyExists)

	// 同一发生不同 key 也被拒绝
	other := sampleRecord()
	other.ID = "legacy-id"
	assert.ErrorIs(t, repo.CreateRecord(ctx, other), ErrAlreadyExists)
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryCompliance_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryComplianceRepo()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.CreateRecord(ctx, sampleRecord()); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryCompliance_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryComplianceRepo()
	rec := sampleRecord()
	require.NoError(t, repo.CreateRecord(ctx, rec))

	rec.CheckpointResults[0] = domain.CheckpointResult{Name: "mutated"}
	got, err := repo.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Puerta", got.CheckpointResults[0].Name)

	got.Status = domain.StatusCompleted
	again, err := repo.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotDone, again.Status)
}

func TestMemoryCompliance_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryComplianceRepo()

	base := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	mk := func(id, round, date, label string, start time.Time) *domain.ComplianceRecord {
		return &domain.ComplianceRecord{
			ID: id, RoundID: round, Date: date, ScheduledTimeLabel: label,
			Status: domain.StatusNotDone, WindowStart: start, WindowEnd: start.Add(10 * time.Minute),
		}
	}
	require.NoError(t, repo.CreateRecord(ctx, mk("r1_2025_06_01_1400", "r1", "2025-06-01", "14:00", base.Add(6*time.Hour))))
	require.NoError(t, repo.CreateRecord(ctx, mk("r1_2025_06_01_0800", "r1", "2025-06-01", "08:00", base)))
	require.NoError(t, repo.CreateRecord(ctx, mk("r2_2025_06_01_0800", "r2", "2025-06-01", "08:00", base)))
	require.NoError(t, repo.CreateRecord(ctx, mk("r1_2025_06_02_0800", "r1", "2025-06-02", "08:00", base.Add(24*time.Hour))))

	byDate, err := repo.ListRecordsByDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, byDate, 3)
	assert.Equal(t, "r1_2025_06_01_0800", byDate[0].ID)
	assert.Equal(t, "r2_2025_06_01_0800", byDate[1].ID)
	assert.Equal(t, "r1_2025_06_01_1400", byDate[2].ID)

	found, err := repo.FindRecords(ctx, ComplianceFilter{RoundID: "r1", Date: "2025-06-01", ScheduledTime: "14:00"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	latest, err := repo.LatestRecordForRound(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1_2025_06_02_0800", latest.ID)

	_, err = repo.LatestRecordForRound(ctx, "r9")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRounds(t *testing.T) {
	ctx := context.Background()
	tol := 10.0
	repo := NewMemoryRoundsRepo(
		&domain.RoundDefinition{ID: "b", Name: "B", Tolerance: &tol,
			Checkpoints: []domain.Checkpoint{{Name: "Puerta", Questions: []string{"¿Cerrada?"}}}},
		&domain.RoundDefinition{ID: "a", Name: "A"},
		nil,
	)

	rounds, err := repo.ListRounds(ctx)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "a", rounds[0].ID)
	assert.Equal(t, "b", rounds[1].ID)

	rounds[1].Checkpoints[0].Questions[0] = "mutated"
	*rounds[1].Tolerance = 99
	b, err := repo.GetRound(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "¿Cerrada?", b.Checkpoints[0].Questions[0])
	assert.Equal(t, 10.0, *b.Tolerance)

	_, err = repo.GetRound(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}
