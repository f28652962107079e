// Package trigger rondas-validator HTTP 接口的客户端，供运维手动触发校验和查看巡检详情。
package trigger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"weblidercontrol/internal/domain"
	"weblidercontrol/internal/validator"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrRoundNotFound /round-detail 返回 404
var ErrRoundNotFound = errors.New("round not found")

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rondas-validator returned %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// Client rondas-validator 客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient baseURL 如 http://localhost:8080
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// 校验是幂等的，POST 失败可以安全重试
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

// ValidateRounds 触发一次批量校验；cadence 为空时由服务端使用 minute
func (c *Client) ValidateRounds(ctx context.Context, cadence string) (*validator.Summary, error) {
	var summary validator.Summary
	var apiErr errorBody
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"cadence": cadence}).
		SetResult(&summary).
		SetError(&apiErr).
		Post("/validate-rounds")
	if err != nil {
		return nil, fmt.Errorf("failed to call validate-rounds: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn("validate-rounds returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", apiErr.Error),
		)
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: apiErr.Error}
	}
	return &summary, nil
}

// RoundDetail 查询巡检规则与最近一条合规记录
func (c *Client) RoundDetail(ctx context.Context, roundID string) (*domain.RoundDetail, error) {
	var detail domain.RoundDetail
	var apiErr errorBody
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("id", roundID).
		SetResult(&detail).
		SetError(&apiErr).
		Get("/round-detail")
	if err != nil {
		return nil, fmt.Errorf("failed to call round-detail: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", roundID, ErrRoundNotFound)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: apiErr.Error}
	}
	return &detail, nil
}
