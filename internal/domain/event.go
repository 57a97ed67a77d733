package domain

import "time"

// Report event kinds published to the events topic.
const (
	EventReportGenerated = "report.generated"
	EventReportFailed    = "report.failed"
)

// ReportEvent records the outcome of one report generation.
type ReportEvent struct {
	Kind         string    `json:"kind"`
	SessionID    string    `json:"session_id"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Council      string    `json:"council"`
	RequestTypes []string  `json:"request_types"`
	Link         string    `json:"link,omitempty"`
	Error        string    `json:"error,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewReportEvent builds an event for q stamped with the package clock.
// A nil err yields a generated event carrying link; otherwise a failed event.
func NewReportEvent(sessionID string, q QueryDescriptor, link string, err error, requestedAt time.Time) ReportEvent {
	ev := ReportEvent{
		Kind:         EventReportGenerated,
		SessionID:    sessionID,
		StartDate:    q.StartDate.Format(DateLayout),
		EndDate:      q.EndDate.Format(DateLayout),
		Council:      q.Council,
		RequestTypes: q.RequestTypes,
		Link:         link,
		RequestedAt:  requestedAt,
		OccurredAt:   clock.Now(),
	}
	if err != nil {
		ev.Kind = EventReportFailed
		ev.Link = ""
		ev.Error = err.Error()
	}
	return ev
}
