package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"weblidercontrol/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ValidateRounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/validate-rounds", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "five_minute", req["cadence"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(validator.Summary{
			Validated: 3,
			Missed:    1,
			Cadence:   "five_minute",
			PerRoundDetail: []validator.RoundResult{
				{RoundID: "r1", State: validator.StateMissedRecorded},
			},
		})
	}))
	defer srv.Close()

	summary, err := NewClient(srv.URL, time.Second, nil).ValidateRounds(context.Background(), "five_minute")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Validated)
	assert.Equal(t, 1, summary.Missed)
	require.Len(t, summary.PerRoundDetail, 1)
	assert.Equal(t, validator.StateMissedRecorded, summary.PerRoundDetail[0].State)
}

func TestClient_ValidateRounds_BadRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown cadence: \"hourly\""}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).ValidateRounds(context.Background(), "hourly")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "unknown cadence")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RoundDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("id") {
		case "r1":
			_, _ = w.Write([]byte(`{"round":{"id":"r1","name":"Ronda Norte","scheduledTime":"08:00"},"latestRecord":{"id":"r1_2025_06_02_0800","status":"NOT_DONE"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"round not found"}`))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)

	detail, err := client.RoundDetail(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, detail.Round)
	assert.Equal(t, "Ronda Norte", detail.Round.Name)
	require.NotNil(t, detail.LatestRecord)
	assert.Equal(t, "NOT_DONE", string(detail.LatestRecord.Status))

	_, err = client.RoundDetail(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrRoundNotFound)
}
