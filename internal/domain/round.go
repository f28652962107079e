package domain

import "time"

// Checkpoint 巡检点（通过扫描二维码确认到达）
type Checkpoint struct {
	Name             string   `json:"name"`
	QRCode           string   `json:"qrCode"`
	RequiresQuestion bool     `json:"requiresQuestion"`
	Questions        []string `json:"questions"`
}

// RoundDefinition 巡检规则（对应 rounds + round_checkpoints 表）
// 由外部运维工具维护，校验服务只读
type RoundDefinition struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Client string `json:"client"`
	Site   string `json:"site"`

	// 本地墙钟开始时间 "HH:MM"，为空表示未排班
	ScheduledTime string `json:"scheduledTime"`

	// 容差，nil 表示未配置
	Tolerance     *float64 `json:"tolerance"`
	ToleranceUnit string   `json:"toleranceUnit"` // minutes / hours（兼容 minutos / horas）

	// 频率：DIARIO / LUNES_VIERNES / FINDE / 星期名列表
	Frequency string `json:"frequency"`

	Checkpoints []Checkpoint `json:"checkpoints"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// RoundDetail GET /round-detail 的响应体
type RoundDetail struct {
	Round        *RoundDefinition  `json:"round"`
	LatestRecord *ComplianceRecord `json:"latestRecord"`
}
