package validator

import "time"

// RoundState 单次校验中某个巡检的结果状态
type RoundState string

const (
	StateSkippedNoSchedule RoundState = "SKIPPED_NO_SCHEDULE"
	StateSkippedNotToday   RoundState = "SKIPPED_NOT_TODAY"
	StateSkippedStale      RoundState = "SKIPPED_STALE"
	StateSkippedInvalid    RoundState = "SKIPPED_INVALID"
	StatePending           RoundState = "PENDING"
	StateAlreadyRecorded   RoundState = "ALREADY_RECORDED"
	StateMissedRecorded    RoundState = "MISSED_RECORDED"
	StateError             RoundState = "ERROR"
)

// IsSkipped 是否为跳过类状态
func (s RoundState) IsSkipped() bool {
	switch s {
	case StateSkippedNoSchedule, StateSkippedNotToday, StateSkippedStale, StateSkippedInvalid:
		return true
	}
	return false
}

// RoundResult 单个巡检的校验明细
type RoundResult struct {
	RoundID          string     `json:"roundId"`
	RoundName        string     `json:"roundName"`
	State            RoundState `json:"state"`
	OccurrenceID     string     `json:"occurrenceId,omitempty"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	MinutesRemaining *int       `json:"minutesRemaining,omitempty"`
	Reason           string     `json:"reason"`
}

// Summary 一次批量校验的汇总
type Summary struct {
	Validated       int           `json:"validated"`
	Missed          int           `json:"missed"`
	Pending         int           `json:"pending"`
	AlreadyRecorded int           `json:"alreadyRecorded"`
	Skipped         int           `json:"skipped"`
	Errors          int           `json:"errors"`
	Cadence         string        `json:"cadence"`
	Date            string        `json:"date"`
	RanAt           time.Time     `json:"ranAt"`
	PerRoundDetail  []RoundResult `json:"perRoundDetail"`
}

func (s *Summary) add(r RoundResult) {
	s.Validated++
	switch {
	case r.State == StateMissedRecorded:
		s.Missed++
	case r.State == StatePending:
		s.Pending++
	case r.State == StateAlreadyRecorded:
		s.AlreadyRecorded++
	case r.State == StateError:
		s.Errors++
	case r.State.IsSkipped():
		s.Skipped++
	}
	s.PerRoundDetail = append(s.PerRoundDetail, r)
}
