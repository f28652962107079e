package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogSink 把审计记录写入结构化日志（未配置 Redis 时的兜底）
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, entry Entry) error {
	entry = fillDefaults(entry, time.Now)
	s.logger.Info("Audit entry",
		zap.String("audit_id", entry.ID),
		zap.String("action", string(entry.Action)),
		zap.String("collection", entry.Collection),
		zap.String("document_id", entry.DocumentID),
		zap.String("actor_id", entry.ActorID),
		zap.Any("payload", entry.Payload),
		zap.String("description", entry.Description),
		zap.Time("timestamp", entry.Timestamp),
	)
	return nil
}
