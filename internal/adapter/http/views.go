package http

import (
	"time"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/report"
)

// JSON views of session state.

type catalogView struct {
	RequestTypes []domain.RequestType `json:"requestTypes"`
}

type sessionView struct {
	ID           string         `json:"id"`
	Filters      filterView     `json:"filters"`
	Legend       []legendView   `json:"legend"`
	Generation   generationView `json:"generation"`
	StaleResults uint64         `json:"staleResults"`
}

type filterView struct {
	Mode         string   `json:"mode"`
	Year         int      `json:"year,omitempty"`
	StartMonth   int      `json:"startMonth,omitempty"`
	EndMonth     int      `json:"endMonth,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	RequestTypes []string `json:"requestTypes"`
	CouncilID    string   `json:"councilId,omitempty"`
}

type legendView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
	Selected    bool   `json:"selected"`
}

type generationView struct {
	Status      report.Status `json:"status"`
	Link        string        `json:"link,omitempty"`
	Error       string        `json:"error,omitempty"`
	Query       *queryView    `json:"query,omitempty"`
	RequestedAt *time.Time    `json:"requestedAt,omitempty"`
	Seq         uint64        `json:"seq"`
}

type queryView struct {
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	RequestTypes []string `json:"requestTypes"`
	Council      string   `json:"council"`
}

func newSessionView(s *report.Session) sessionView {
	legend := s.Legend()
	lv := make([]legendView, len(legend))
	for i, e := range legend {
		lv[i] = legendView{
			ID:          e.Type.ID,
			DisplayName: e.Type.DisplayName,
			Color:       e.Type.Color,
			Selected:    e.Selected,
		}
	}
	return sessionView{
		ID:           s.ID,
		Filters:      newFilterView(s.Filters()),
		Legend:       lv,
		Generation:   newGenerationView(s.Generation()),
		StaleResults: s.StaleResults(),
	}
}

func newFilterView(rs domain.RangeSet) filterView {
	return filterView{
		Mode:         rs.Mode.String(),
		Year:         rs.Year,
		StartMonth:   rs.StartMonth,
		EndMonth:     rs.EndMonth,
		StartDate:    formatDate(rs.StartDate),
		EndDate:      formatDate(rs.EndDate),
		RequestTypes: rs.RequestTypes.IDs(),
		CouncilID:    rs.CouncilID,
	}
}

func newGenerationView(st report.GenerationState) generationView {
	v := generationView{
		Status: st.Status,
		Link:   st.Link,
		Seq:    st.Seq,
	}
	if st.Err != nil {
		v.Error = st.Err.Error()
	}
	if st.Seq > 0 && st.Status != report.StatusIdle {
		v.Query = &queryView{
			StartDate:    st.Query.StartDate.Format(domain.DateLayout),
			EndDate:      st.Query.EndDate.Format(domain.DateLayout),
			RequestTypes: st.Query.RequestTypes,
			Council:      st.Query.Council,
		}
		at := st.RequestedAt
		v.RequestedAt = &at
	}
	return v
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}
