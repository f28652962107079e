package audit

import (
	"context"
	"fmt"
	"time"

	rediscommon "weblidercontrol/common/redis"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultStream 审计流默认名称
const DefaultStream = "rondas:audit"

// StreamSink 把审计记录发布到 Redis Stream，由外部审计服务消费落库
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
	now    func() time.Time
}

// NewStreamSink stream 为空时使用 DefaultStream；maxLen <= 0 不裁剪
func NewStreamSink(client *redis.Client, stream string, maxLen int64) *StreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamSink{client: client, stream: stream, maxLen: maxLen, now: time.Now}
}

func (s *StreamSink) Record(ctx context.Context, entry Entry) error {
	entry = fillDefaults(entry, s.now)
	if _, err := rediscommon.PublishJSONToStream(ctx, s.client, s.stream, entry, s.maxLen); err != nil {
		return fmt.Errorf("failed to publish audit entry %s: %w", entry.ID, err)
	}
	return nil
}

// fillDefaults 补齐 ID、时间戳和操作者
func fillDefaults(entry Entry, now func() time.Time) Entry {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now().UTC()
	}
	if entry.ActorID == "" {
		entry.ActorID = SystemActorID
	}
	return entry
}
