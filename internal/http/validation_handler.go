package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"weblidercontrol/internal/domain"
	"weblidercontrol/internal/repository"
	"weblidercontrol/internal/schedule"
	"weblidercontrol/internal/validator"

	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

// BatchRunner 执行一次批量校验（validator.Checker）
type BatchRunner interface {
	Run(ctx context.Context, cadence validator.Cadence) (*validator.Summary, error)
}

// ValidationHandler 手动校验、巡检详情和合规报表
type ValidationHandler struct {
	runner   BatchRunner
	cadences validator.CadenceSet
	rounds   repository.RoundsRepository
	records  repository.ComplianceRepository
	clock    *schedule.Clock
	logger   *zap.Logger
}

func NewValidationHandler(
	runner BatchRunner,
	cadences validator.CadenceSet,
	rounds repository.RoundsRepository,
	records repository.ComplianceRepository,
	clock *schedule.Clock,
	logger *zap.Logger,
) *ValidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationHandler{
		runner:   runner,
		cadences: cadences,
		rounds:   rounds,
		records:  records,
		clock:    clock,
		logger:   logger,
	}
}

// ValidateRounds POST /validate-rounds：同步执行一次批量校验
func (h *ValidationHandler) ValidateRounds(w http.ResponseWriter, r *http.Request) {
	var req ValidateRoundsRequest
	if err := readBodyJSON(r, maxRequestBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cadence, err := h.cadences.Lookup(req.Cadence)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.runner.Run(r.Context(), cadence)
	if err != nil {
		h.logger.Error("Manual validation failed",
			zap.String("cadence", cadence.Name),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("validation failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RoundDetail GET /round-detail?id=：巡检规则及其最近一条合规记录
func (h *ValidationHandler) RoundDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	round, err := h.rounds.GetRound(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "round not found")
			return
		}
		h.logger.Error("GetRound failed", zap.String("round_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get round: %v", err))
		return
	}

	detail := domain.RoundDetail{Round: round}
	latest, err := h.records.LatestRecordForRound(r.Context(), id)
	switch {
	case err == nil:
		detail.LatestRecord = latest
	case errors.Is(err, repository.ErrNotFound):
	default:
		h.logger.Error("LatestRecordForRound failed", zap.String("round_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get latest record: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ComplianceReport GET /compliance-report?date=YYYY-MM-DD：导出某天合规记录，缺省为设施本地今天
func (h *ValidationHandler) ComplianceReport(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = schedule.FormatDateKey(h.clock.LocalNow())
	}
	if _, err := schedule.ParseDateKey(date, h.clock.Location()); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	records, err := h.records.ListRecordsByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("ListRecordsByDate failed for report", zap.String("date", date), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list compliance records: %v", err))
		return
	}

	data, err := GenerateComplianceReport(records, h.clock.Location())
	if err != nil {
		h.logger.Error("GenerateComplianceReport failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to generate report: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=compliance-%s.xlsx", date))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
