// Package audit 审计日志写入接口。
// 审计是尽力而为：写入失败只记日志，不影响合规记录的写入结果。
package audit

import (
	"context"
	"errors"
	"time"
)

// Action 审计动作类型
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	// ActionAutomatedValidation 自动校验产生的动作，与用户发起的增删改区分
	ActionAutomatedValidation Action = "AUTOMATED_VALIDATION"
)

// SystemActorID 自动校验写入审计时使用的操作者
const SystemActorID = "system:round-validator"

// Entry 一条审计记录
type Entry struct {
	ID          string         `json:"id"`
	Action      Action         `json:"action"`
	Collection  string         `json:"collection"`
	DocumentID  string         `json:"documentId"`
	ActorID     string         `json:"actorId"`
	Payload     map[string]any `json:"payload"`
	Description string         `json:"description"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Sink 审计写入方
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// NopSink 丢弃所有审计记录
type NopSink struct{}

func (NopSink) Record(context.Context, Entry) error { return nil }

// MultiSink 依次写入多个 Sink，全部尝试后合并错误
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, entry Entry) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
