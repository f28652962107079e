// Package validator 巡检合规校验：找出已超过截止时间仍未完成的巡检发生，
// 为每个发生最多写入一条 NOT_DONE 记录。
//
// 1 分钟和 5 分钟两个节奏、以及 HTTP 手动触发都调用同一个 Checker，
// 之间不加锁；并发安全依赖确定性的发生标识和存储层的 create-only 写入。
package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"weblidercontrol/internal/domain"
	"weblidercontrol/internal/repository"
	"weblidercontrol/internal/schedule"

	"go.uber.org/zap"
)

// Checker 合规校验器
type Checker struct {
	rounds   repository.RoundsRepository
	records  repository.ComplianceRepository
	recorder *Recorder
	clock    *schedule.Clock
	policy   schedule.FrequencyPolicy
	logger   *zap.Logger
}

// NewChecker 创建校验器
func NewChecker(
	rounds repository.RoundsRepository,
	records repository.ComplianceRepository,
	recorder *Recorder,
	clock *schedule.Clock,
	policy schedule.FrequencyPolicy,
	logger *zap.Logger,
) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = schedule.NewClock(schedule.DefaultUTCOffset, nil)
	}
	if policy == "" {
		policy = schedule.PolicySkipUnknown
	}
	return &Checker{
		rounds:   rounds,
		records:  records,
		recorder: recorder,
		clock:    clock,
		policy:   policy,
		logger:   logger,
	}
}

// Run 以当前时间执行一次批量校验
func (c *Checker) Run(ctx context.Context, cadence Cadence) (*Summary, error) {
	return c.RunAt(ctx, cadence, c.clock.Now())
}

// RunAt 以指定时间执行一次批量校验。
// 只有读不到巡检规则时返回错误；单个巡检的问题记入明细，不中断批次
func (c *Checker) RunAt(ctx context.Context, cadence Cadence, now time.Time) (*Summary, error) {
	local := c.clock.Local(now)
	dateKey := schedule.FormatDateKey(local)

	rounds, err := c.rounds.ListRounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read rounds: %w", err)
	}

	summary := &Summary{
		Cadence:        cadence.Name,
		Date:           dateKey,
		RanAt:          now.UTC(),
		PerRoundDetail: make([]RoundResult, 0, len(rounds)),
	}

	for _, round := range rounds {
		if round == nil {
			continue
		}
		result := c.checkRound(ctx, cadence, round, local, dateKey)
		c.logResult(cadence, result)
		summary.add(result)
	}

	c.logger.Info("Round validation completed",
		zap.String("cadence", cadence.Name),
		zap.String("date", dateKey),
		zap.Int("validated", summary.Validated),
		zap.Int("missed", summary.Missed),
		zap.Int("pending", summary.Pending),
		zap.Int("already_recorded", summary.AlreadyRecorded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}

func (c *Checker) checkRound(ctx context.Context, cadence Cadence, round *domain.RoundDefinition, local time.Time, dateKey string) RoundResult {
	result := RoundResult{RoundID: round.ID, RoundName: round.Name}

	if strings.TrimSpace(round.ScheduledTime) == "" {
		return result.with(StateSkippedNoSchedule, "no scheduled time configured")
	}

	if !schedule.MatchesFrequencyToday(round.Frequency, dateKey, c.policy) {
		return result.with(StateSkippedNotToday, fmt.Sprintf("frequency %q does not include %s", round.Frequency, local.Weekday()))
	}

	if cadence.FreshnessFilter && !round.CreatedAt.IsZero() {
		if created := c.clock.DateKey(round.CreatedAt); created != dateKey {
			return result.with(StateSkippedStale, fmt.Sprintf("definition created on %s, not today", created))
		}
	}

	if round.Tolerance == nil {
		return result.with(StateSkippedInvalid, "tolerance not configured")
	}
	windowStart, deadline, err := schedule.ComputeWindow(round.ScheduledTime, *round.Tolerance, round.ToleranceUnit, local)
	if err != nil {
		return result.with(StateSkippedInvalid, err.Error())
	}
	minutes := schedule.MinutesUntilDeadline(deadline, local)
	result.Deadline = &deadline
	result.MinutesRemaining = &minutes

	if !schedule.IsOverdue(deadline, local) {
		return result.with(StatePending, fmt.Sprintf("deadline %s not reached (%d min remaining)", deadline.Format("15:04"), minutes))
	}

	occurrenceID, err := schedule.ResolveOccurrenceID(round.ID, round.ScheduledTime, local)
	if err != nil {
		return result.with(StateSkippedInvalid, fmt.Sprintf("cannot resolve occurrence: %v", err))
	}
	result.OccurrenceID = occurrenceID
	label, _ := schedule.NormalizeScheduledTime(round.ScheduledTime)

	// 第一次存在性检查
	existing, err := c.findExisting(ctx, cadence, round.ID, occurrenceID, dateKey, label)
	if err != nil {
		return result.with(StateError, fmt.Sprintf("existence check failed: %v", err))
	}
	if existing != nil {
		return result.with(StateAlreadyRecorded, existingReason(cadence, existing))
	}

	// 截止后 2 分钟内不写，给正在进行的扫码完成留出时间
	if !schedule.GraceElapsed(deadline, local) {
		return result.with(StatePending, fmt.Sprintf("overdue since %s, within grace period", deadline.Format("15:04")))
	}

	// 写入前最后一次存在性检查
	existing, err = c.findExisting(ctx, cadence, round.ID, occurrenceID, dateKey, label)
	if err != nil {
		return result.with(StateError, fmt.Sprintf("final existence check failed: %v", err))
	}
	if existing != nil {
		return result.with(StateAlreadyRecorded, existingReason(cadence, existing))
	}

	rec := BuildRecord(round, occurrenceID, dateKey, label, windowStart, deadline, cadence.Name, local)
	if err := c.recorder.Record(ctx, rec); err != nil {
		if errors.Is(err, ErrAlreadyRecorded) {
			return result.with(StateAlreadyRecorded, "recorded concurrently by another writer")
		}
		return result.with(StateError, err.Error())
	}
	return result.with(StateMissedRecorded, fmt.Sprintf("not completed by %s, recorded NOT_DONE", deadline.Format("15:04")))
}

// findExisting 按发生标识查找；节奏启用二次查询时再按 {roundId, date, scheduledTime} 查
func (c *Checker) findExisting(ctx context.Context, cadence Cadence, roundID, occurrenceID, dateKey, label string) (*domain.ComplianceRecord, error) {
	rec, err := c.records.GetRecord(ctx, occurrenceID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if !cadence.SecondaryQueryCheck {
		return nil, nil
	}

	records, err := c.records.FindRecords(ctx, repository.ComplianceFilter{
		RoundID:       roundID,
		Date:          dateKey,
		ScheduledTime: label,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func existingReason(cadence Cadence, rec *domain.ComplianceRecord) string {
	if !cadence.SecondaryQueryCheck {
		return fmt.Sprintf("record %s exists (status %s)", rec.ID, rec.Status)
	}
	switch {
	case rec.Status.IsCompletion():
		return fmt.Sprintf("completed by guard (status %s), never overwritten", rec.Status)
	case rec.Status == domain.StatusNotDone && rec.GeneratedAutomatically:
		return "already marked NOT_DONE by an earlier validation"
	default:
		return fmt.Sprintf("record %s exists (status %s)", rec.ID, rec.Status)
	}
}

func (c *Checker) logResult(cadence Cadence, r RoundResult) {
	fields := []zap.Field{
		zap.String("cadence", cadence.Name),
		zap.String("round_id", r.RoundID),
		zap.String("state", string(r.State)),
		zap.String("reason", r.Reason),
	}
	if r.OccurrenceID != "" {
		fields = append(fields, zap.String("occurrence_id", r.OccurrenceID))
	}

	switch r.State {
	case StateMissedRecorded:
		c.logger.Info("Missed round recorded", fields...)
	case StateSkippedInvalid:
		c.logger.Warn("Round skipped, invalid schedule", fields...)
	case StateError:
		c.logger.Error("Round validation failed", fields...)
	default:
		c.logger.Debug("Round evaluated", fields...)
	}
}

func (r RoundResult) with(state RoundState, reason string) RoundResult {
	r.State = state
	r.Reason = reason
	return r
}
