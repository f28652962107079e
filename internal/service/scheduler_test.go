package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"weblidercontrol/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (r *countingRunner) Run(_ context.Context, cadence validator.Cadence) (*validator.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[cadence.Name]++
	if r.err != nil {
		return nil, r.err
	}
	return &validator.Summary{Cadence: cadence.Name}, nil
}

func (r *countingRunner) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func TestScheduler_RunsEachCadence(t *testing.T) {
	runner := &countingRunner{}
	cadences := validator.DefaultCadences(10*time.Millisecond, 25*time.Millisecond, true)
	s := NewScheduler(runner, zap.NewNop(), cadences.All()...)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	assert.Eventually(t, func() bool {
		return runner.count(validator.CadenceMinute) >= 3 && runner.count(validator.CadenceFiveMinute) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()

	stopped := runner.count(validator.CadenceMinute)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runner.count(validator.CadenceMinute))
}

func TestScheduler_SkipsCadenceWithoutInterval(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, nil, validator.Cadence{Name: "broken"})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	s.Wait()
	assert.Equal(t, 0, runner.count("broken"))
}

func TestScheduler_RunOnceReportsFailure(t *testing.T) {
	runner := &countingRunner{err: errors.New("rounds unreadable")}
	s := NewScheduler(runner, zap.NewNop())

	err := s.RunOnce(context.Background(), validator.Cadence{Name: validator.CadenceMinute})
	require.Error(t, err)
	assert.Equal(t, 1, runner.count(validator.CadenceMinute))
}
