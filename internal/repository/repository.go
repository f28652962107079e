package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound 文档不存在
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists create-only 写入时目标 key 已存在
	ErrAlreadyExists = errors.New("already exists")
)

// ComplianceFilter 合规记录查询条件（空字段不参与过滤）
type ComplianceFilter struct {
	RoundID       string
	Date          string // YYYY-MM-DD
	ScheduledTime string // HH:MM
}

// pgUniqueViolation unique_violation
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
