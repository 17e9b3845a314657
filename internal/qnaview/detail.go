package qnaview

import (
	"faishion-storefront/internal/domain"
)

// DefaultAnswerer is shown when the backend does not name who answered
const DefaultAnswerer = "Admin/Seller"

// Detail is the render model of the detail screen
type Detail struct {
	State
	Permissions Permissions `json:"permissions"`
	CreatedDate string      `json:"createdDate,omitempty"`
	AnsweredBy  string      `json:"answeredBy,omitempty"`
}

// Render builds the detail view for sess
func (s State) Render(sess domain.Session) Detail {
	d := Detail{State: s, Permissions: s.Permissions(sess)}
	if s.Record == nil {
		return d
	}
	if !s.Record.CreatedAt.IsZero() {
		d.CreatedDate = s.Record.CreatedAt.Format("2006.01.02")
	}
	if s.Record.Answered() {
		d.AnsweredBy = DefaultAnswerer
		if s.Record.AnsweredBy != nil && *s.Record.AnsweredBy != "" {
			d.AnsweredBy = *s.Record.AnsweredBy
		}
	}
	return d
}
