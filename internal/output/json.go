package output

import (
	"time"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// TimerResponse represents the timer state in JSON.
type TimerResponse struct {
	Phase          model.TimerPhase  `json:"phase"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	OptionID       string            `json:"option_id,omitempty"`
	Type           string            `json:"type,omitempty"`
	StartedAt      string            `json:"started_at,omitempty"`
	Pending        *model.Completion `json:"pending,omitempty"`
}

// NewTimerResponse builds a TimerResponse from a timer state.
func NewTimerResponse(st model.TimerState, elapsed int) *TimerResponse {
	resp := &TimerResponse{
		Phase:          st.Phase(),
		ElapsedSeconds: elapsed,
		OptionID:       st.OptionID,
		Type:           st.TypeLabel,
		Pending:        st.Pending,
	}
	if st.StartTime != nil {
		resp.StartedAt = time.UnixMilli(*st.StartTime).UTC().Format(time.RFC3339)
	}
	if st.Pending != nil {
		resp.ElapsedSeconds = st.Pending.Elapsed
		resp.OptionID = st.Pending.OptionID
		resp.Type = st.Pending.TypeLabel
	}
	return resp
}

// RecordResponse wraps a single record.
type RecordResponse struct {
	Status string                `json:"status"`
	Record *model.PracticeRecord `json:"record"`
}

// RecordsResponse represents the record list in JSON.
type RecordsResponse struct {
	Records              []*model.PracticeRecord `json:"records"`
	TotalCount           int                     `json:"total_count"`
	TotalDurationSeconds int                     `json:"total_duration_seconds"`
}

// NewRecordsResponse creates a RecordsResponse from records.
func NewRecordsResponse(recs []*model.PracticeRecord) *RecordsResponse {
	if recs == nil {
		recs = []*model.PracticeRecord{}
	}
	resp := &RecordsResponse{Records: recs, TotalCount: len(recs)}
	for _, r := range recs {
		resp.TotalDurationSeconds += r.Duration
	}
	return resp
}

// OptionsResponse represents the option list in JSON.
type OptionsResponse struct {
	Options []*model.PracticeOption `json:"options"`
	Full    bool                    `json:"full"`
	Max     int                     `json:"max"`
}

// SyncStatusResponse represents account and sync state in JSON.
type SyncStatusResponse struct {
	SignedIn     bool                   `json:"signed_in"`
	Email        string                 `json:"email,omitempty"`
	Status       model.SyncStatus       `json:"status"`
	LastSyncedAt *time.Time             `json:"last_synced_at,omitempty"`
	LastError    string                 `json:"last_error,omitempty"`
	FailedIDs    []string               `json:"failed_sync_ids"`
	Pending      int                    `json:"pending"`
	Conflict     *model.PendingConflict `json:"conflict,omitempty"`
}

// NewSyncStatusResponse builds a SyncStatusResponse. Session cookies are
// never included.
func NewSyncStatusResponse(m *model.SyncMeta, pending int) *SyncStatusResponse {
	failed := m.FailedIDs
	if failed == nil {
		failed = []string{}
	}
	return &SyncStatusResponse{
		SignedIn:     m.SignedIn(),
		Email:        m.Email,
		Status:       m.Status,
		LastSyncedAt: m.LastSyncedAt,
		LastError:    m.LastError,
		FailedIDs:    failed,
		Pending:      pending,
		Conflict:     m.Conflict,
	}
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// StatusOK is a bare acknowledgement.
type StatusOK struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(code, message, suggestion string) error {
	return j.JSON(ErrorResponse{
		Status:     "error",
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	})
}

// PrintOK outputs a bare acknowledgement.
func (j *JSONFormatter) PrintOK(status, message string) error {
	return j.JSON(StatusOK{Status: status, Message: message})
}

// PrintRecords outputs records in JSON format.
func (j *JSONFormatter) PrintRecords(recs []*model.PracticeRecord) error {
	return j.JSON(NewRecordsResponse(recs))
}

// PrintRecord outputs one record with a status word.
func (j *JSONFormatter) PrintRecord(status string, r *model.PracticeRecord) error {
	return j.JSON(RecordResponse{Status: status, Record: r})
}

// PrintTimer outputs timer state in JSON format.
func (j *JSONFormatter) PrintTimer(st model.TimerState, elapsed int) error {
	return j.JSON(NewTimerResponse(st, elapsed))
}
