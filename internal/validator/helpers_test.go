package validator

import (
	"context"
	"errors"
	"sync"
	"time"

	"weblidercontrol/internal/audit"
	"weblidercontrol/internal/domain"
	"weblidercontrol/internal/notify"
	"weblidercontrol/internal/repository"
	"weblidercontrol/internal/schedule"

	"go.uber.org/zap"
)

var facility = schedule.FixedLocation(schedule.DefaultUTCOffset)

// 2025-06-02 是周一
func at(hh, mm int) time.Time {
	return time.Date(2025, 6, 2, hh, mm, 0, 0, facility)
}

func float(v float64) *float64 { return &v }

func dailyRound() *domain.RoundDefinition {
	return &domain.RoundDefinition{
		ID:            "r1",
		Name:          "Ronda Norte",
		Client:        "ACME",
		Site:          "Planta 1",
		ScheduledTime: "08:00",
		Tolerance:     float(10),
		ToleranceUnit: "minutes",
		Frequency:     "DAILY",
	}
}

type recordingSink struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (s *recordingSink) Record(_ context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []notify.MissedRoundNotification
	err  error
}

func (p *recordingPublisher) PublishMissedRound(_ context.Context, n notify.MissedRoundNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return p.err
}

// flakyRecords 对指定 ID 的读取返回错误
type flakyRecords struct {
	*repository.MemoryComplianceRepo
	failIDs map[string]bool
}

func (f *flakyRecords) GetRecord(ctx context.Context, id string) (*domain.ComplianceRecord, error) {
	if f.failIDs[id] {
		return nil, errors.New("store unavailable")
	}
	return f.MemoryComplianceRepo.GetRecord(ctx, id)
}

type failingRounds struct{}

func (failingRounds) ListRounds(context.Context) ([]*domain.RoundDefinition, error) {
	return nil, errors.New("permission denied")
}

func (failingRounds) GetRound(context.Context, string) (*domain.RoundDefinition, error) {
	return nil, errors.New("permission denied")
}

type fixture struct {
	checker   *Checker
	records   *repository.MemoryComplianceRepo
	sink      *recordingSink
	publisher *recordingPublisher
	cadences  CadenceSet
}

func newFixture(rounds ...*domain.RoundDefinition) *fixture {
	records := repository.NewMemoryComplianceRepo()
	return newFixtureWith(repository.NewMemoryRoundsRepo(rounds...), records, records, schedule.PolicySkipUnknown)
}

func newFixtureWith(rounds repository.RoundsRepository, records repository.ComplianceRepository, mem *repository.MemoryComplianceRepo, policy schedule.FrequencyPolicy) *fixture {
	sink := &recordingSink{}
	publisher := &recordingPublisher{}
	logger := zap.NewNop()
	recorder := NewRecorder(records, sink, publisher, logger)
	clock := schedule.NewClock(schedule.DefaultUTCOffset, nil)
	return &fixture{
		checker:   NewChecker(rounds, records, recorder, clock, policy, logger),
		records:   mem,
		sink:      sink,
		publisher: publisher,
		cadences:  DefaultCadences(time.Minute, 5*time.Minute, true),
	}
}
