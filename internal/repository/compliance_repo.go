package repository

import (
	"context"

	"weblidercontrol/internal/domain"
)

// ComplianceRepository 合规记录仓库
// 只提供 create-only 写入，自动校验永远不会更新已有记录
type ComplianceRepository interface {
	// GetRecord 按发生标识读取（getByKey），不存在时返回 ErrNotFound
	GetRecord(ctx context.Context, recordID string) (*domain.ComplianceRecord, error)

	// CreateRecord 仅当 key 不存在时写入（createOnly），已存在返回 ErrAlreadyExists
	CreateRecord(ctx context.Context, record *domain.ComplianceRecord) error

	// FindRecords 按条件查询（query），用作二次存在性检查
	FindRecords(ctx context.Context, filter ComplianceFilter) ([]*domain.ComplianceRecord, error)

	// LatestRecordForRound 某巡检最近一次（按计划开始时间）的记录，没有时返回 ErrNotFound
	LatestRecordForRound(ctx context.Context, roundID string) (*domain.ComplianceRecord, error)

	// ListRecordsByDate 某天的全部记录（日报导出）
	ListRecordsByDate(ctx context.Context, date string) ([]*domain.ComplianceRecord, error)
}
