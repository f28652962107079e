// Package notify 生成漏巡通知的触发数据，推送投递由下游服务完成。
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KindRoundMissed 漏巡通知类型
const KindRoundMissed = "ROUND_MISSED"

// DefaultTopicPrefix 通知主题默认前缀，完整主题为 {prefix}/{client}
const DefaultTopicPrefix = "rondas/notifications"

// MissedRoundNotification 漏巡通知
type MissedRoundNotification struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	RoundID       string    `json:"roundId"`
	RoundName     string    `json:"roundName"`
	Client        string    `json:"client"`
	Site          string    `json:"site"`
	OccurrenceID  string    `json:"occurrenceId"`
	ScheduledTime string    `json:"scheduledTime"`
	Date          string    `json:"date"`
	Deadline      time.Time `json:"deadline"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Publisher 通知发布方
type Publisher interface {
	PublishMissedRound(ctx context.Context, n MissedRoundNotification) error
}

// NopPublisher 未配置 MQTT 时使用
type NopPublisher struct{}

func (NopPublisher) PublishMissedRound(context.Context, MissedRoundNotification) error { return nil }

// messagePublisher common/mqtt.Client 的发布子集
type messagePublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher 通过 MQTT 发布漏巡通知
type MQTTPublisher struct {
	client      messagePublisher
	topicPrefix string
	qos         byte
}

func NewMQTTPublisher(client messagePublisher, topicPrefix string, qos byte) *MQTTPublisher {
	if topicPrefix == "" {
		topicPrefix = DefaultTopicPrefix
	}
	return &MQTTPublisher{
		client:      client,
		topicPrefix: strings.TrimSuffix(topicPrefix, "/"),
		qos:         qos,
	}
}

// Topic 按客户划分主题；客户为空时落到 "unassigned"
func (p *MQTTPublisher) Topic(client string) string {
	client = strings.TrimSpace(client)
	if client == "" {
		client = "unassigned"
	}
	return p.topicPrefix + "/" + client
}

func (p *MQTTPublisher) PublishMissedRound(_ context.Context, n MissedRoundNotification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Kind == "" {
		n.Kind = KindRoundMissed
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return p.client.Publish(p.Topic(n.Client), p.qos, false, payload)
}
