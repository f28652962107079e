package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weblidercontrol/internal/audit"
	"weblidercontrol/internal/domain"
	"weblidercontrol/internal/notify"
	"weblidercontrol/internal/repository"

	"go.uber.org/zap"
)

// ComplianceCollection 审计记录中的集合名
const ComplianceCollection = "compliance_records"

// ErrAlreadyRecorded create-only 写入冲突：其它写入方已记录该发生
var ErrAlreadyRecorded = errors.New("occurrence already recorded")

// BuildRecord 构造 NOT_DONE 合规记录（纯函数）
// 巡检点结果按巡检点顺序初始化为未扫描；未配置巡检点时使用一个 "General" 占位
func BuildRecord(round *domain.RoundDefinition, occurrenceID, dateKey, scheduledLabel string, windowStart, windowEnd time.Time, cadence string, now time.Time) *domain.ComplianceRecord {
	results := make(map[int]domain.CheckpointResult, len(round.Checkpoints))
	for i, cp := range round.Checkpoints {
		results[i] = domain.CheckpointResult{Name: cp.Name}
	}
	if len(results) == 0 {
		results[0] = domain.CheckpointResult{Name: domain.GeneralCheckpointName}
	}

	var tolerance float64
	if round.Tolerance != nil {
		tolerance = *round.Tolerance
	}

	return &domain.ComplianceRecord{
		ID:                     occurrenceID,
		RoundID:                round.ID,
		RoundName:              round.Name,
		Client:                 round.Client,
		Site:                   round.Site,
		Status:                 domain.StatusNotDone,
		WindowStart:            windowStart,
		WindowEnd:              windowEnd,
		ScheduledTimeLabel:     scheduledLabel,
		Tolerance:              tolerance,
		ToleranceUnit:          round.ToleranceUnit,
		CheckpointResults:      results,
		Date:                   dateKey,
		CreatedAt:              now,
		GeneratedAutomatically: true,
		Cadence:                cadence,
	}
}

// Recorder 漏巡记录写入：create-only 写入，成功后尽力写审计并发布通知
type Recorder struct {
	records  repository.ComplianceRepository
	sink     audit.Sink
	notifier notify.Publisher
	logger   *zap.Logger
}

// NewRecorder sink / notifier 为 nil 时不写审计、不发通知
func NewRecorder(records repository.ComplianceRepository, sink audit.Sink, notifier notify.Publisher, logger *zap.Logger) *Recorder {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if notifier == nil {
		notifier = notify.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{records: records, sink: sink, notifier: notifier, logger: logger}
}

// Record 写入记录；key 已存在时返回 ErrAlreadyRecorded。
// 审计和通知失败只记日志，不回滚也不影响返回值
func (r *Recorder) Record(ctx context.Context, rec *domain.ComplianceRecord) error {
	if err := r.records.CreateRecord(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return fmt.Errorf("%s: %w", rec.ID, ErrAlreadyRecorded)
		}
		return fmt.Errorf("failed to write compliance record %s: %w", rec.ID, err)
	}

	r.emitAudit(ctx, rec)
	r.emitNotification(ctx, rec)
	return nil
}

func (r *Recorder) emitAudit(ctx context.Context, rec *domain.ComplianceRecord) {
	entry := audit.Entry{
		Action:     audit.ActionAutomatedValidation,
		Collection: ComplianceCollection,
		DocumentID: rec.ID,
		ActorID:    audit.SystemActorID,
		Payload: map[string]any{
			"outcome":       string(domain.StatusNotDone),
			"roundId":       rec.RoundID,
			"scheduledTime": rec.ScheduledTimeLabel,
			"tolerance":     rec.Tolerance,
			"client":        rec.Client,
			"site":          rec.Site,
		},
		Description: fmt.Sprintf("Round %q (%s) not completed on %s before its deadline", rec.RoundName, rec.ScheduledTimeLabel, rec.Date),
	}
	if err := r.sink.Record(ctx, entry); err != nil {
		r.logger.Warn("Failed to record audit entry",
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
	}
}

func (r *Recorder) emitNotification(ctx context.Context, rec *domain.ComplianceRecord) {
	n := notify.MissedRoundNotification{
		Kind:          notify.KindRoundMissed,
		RoundID:       rec.RoundID,
		RoundName:     rec.RoundName,
		Client:        rec.Client,
		Site:          rec.Site,
		OccurrenceID:  rec.ID,
		ScheduledTime: rec.ScheduledTimeLabel,
		Date:          rec.Date,
		Deadline:      rec.WindowEnd,
		CreatedAt:     rec.CreatedAt,
	}
	if err := r.notifier.PublishMissedRound(ctx, n); err != nil {
		r.logger.Warn("Failed to publish missed round notification",
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
	}
}
