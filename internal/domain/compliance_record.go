package domain

import "time"

// ComplianceStatus 合规记录状态（写入即终态）
type ComplianceStatus string

const (
	StatusNotDone    ComplianceStatus = "NOT_DONE"
	StatusIncomplete ComplianceStatus = "INCOMPLETE"
	StatusCompleted  ComplianceStatus = "COMPLETED"
)

// IsCompletion 由扫码完成路径写入的状态（自动校验永远不会覆盖）
func (s ComplianceStatus) IsCompletion() bool {
	return s == StatusCompleted || s == StatusIncomplete
}

// GeneralCheckpointName 巡检未配置巡检点时使用的占位巡检点
const GeneralCheckpointName = "General"

// CheckpointResult 单个巡检点的结果
type CheckpointResult struct {
	Name      string     `json:"name"`
	Scanned   bool       `json:"scanned"`
	PhotoURL  *string    `json:"photoUrl"`
	ScannedAt *time.Time `json:"scannedAt"`
}

// ComplianceRecord 合规记录（对应 compliance_records 表）
// 主键 ID 为发生标识 {roundId}_{YYYY}_{MM}_{DD}_{HHMM}，每个发生最多一条
type ComplianceRecord struct {
	ID        string `json:"id"`
	RoundID   string `json:"roundId"`
	RoundName string `json:"roundName"`
	Client    string `json:"client"`
	Site      string `json:"site"`

	Status ComplianceStatus `json:"status"`

	// 计划开始与截止（开始 + 容差）
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`

	ScheduledTimeLabel string  `json:"scheduledTimeLabel"`
	Tolerance          float64 `json:"tolerance"`
	ToleranceUnit      string  `json:"toleranceUnit"`

	// 巡检点序号 -> 结果
	CheckpointResults map[int]CheckpointResult `json:"checkpointResults"`

	// 被校验那天的日期键 YYYY-MM-DD
	Date string `json:"date"`

	CreatedAt              time.Time `json:"createdAt"`
	GeneratedAutomatically bool      `json:"generatedAutomatically"`
	Cadence                string    `json:"cadence,omitempty"` // 写入该记录的校验节奏
}
