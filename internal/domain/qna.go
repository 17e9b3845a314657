package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// QnaRecord is a single question with its optional answer
type QnaRecord struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  Timestamp `json:"created_at"`
	Answer     *string   `json:"answer"`
	AnsweredBy *string   `json:"answered_by"`
	Secret     bool      `json:"secret"`
}

// Answered reports whether the record carries a non-empty answer
func (r *QnaRecord) Answered() bool {
	return r.Answer != nil && *r.Answer != ""
}

// QnaPage is one page of the question listing
type QnaPage struct {
	Content       []QnaRecord `json:"content"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
	Number        int         `json:"number"`
	Size          int         `json:"size"`
}

// ProductQuestion is a question listed under a product. The backend masks
// the title and content of other users' secret questions.
type ProductQuestion struct {
	ID        int64   `json:"id"`
	UserName  string  `json:"userName"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Answer    *string `json:"answer"`
	Secret    bool    `json:"secret"`
	CreatedAt string  `json:"createdAt"`
	IsAuthor  bool    `json:"isAuthor"`
	CanView   bool    `json:"canView"`
}

// NewQuestion is the payload for asking a question about a product
type NewQuestion struct {
	ProductID int64  `json:"productId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Secret    bool   `json:"secret"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp accepts the zoned and zoneless date formats the backend emits
type Timestamp struct {
	time.Time
}

// UnmarshalJSON parses a quoted timestamp; null leaves the zero value
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported format %q", s)
}

// MarshalJSON encodes the timestamp as RFC 3339, or null when unset
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
