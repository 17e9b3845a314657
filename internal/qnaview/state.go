// Package qnaview holds the Q&A detail screen as a state machine over
// loading, error and loaded, with an edit sub-mode for the author.
package qnaview

import (
	"errors"
	"strings"

	"faishion-storefront/internal/domain"
)

// Status of the detail view
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusLoaded  Status = "loaded"
)

var (
	ErrNotLoaded          = errors.New("question is not loaded")
	ErrNotAuthor          = errors.New("only the author can change this question")
	ErrNotEditing         = errors.New("question is not being edited")
	ErrEmptyAnswer        = errors.New("answer is empty")
	ErrNoAnswerPermission = errors.New("session may not answer questions")
	ErrAlreadyAnswered    = errors.New("question is already answered")
)

// State is the persisted detail view of one question for one session
type State struct {
	QnaID         int64             `json:"qnaId"`
	Status        Status            `json:"status"`
	Record        *domain.QnaRecord `json:"record,omitempty"`
	Editing       bool              `json:"editing"`
	EditedTitle   string            `json:"editedTitle"`
	EditedContent string            `json:"editedContent"`
	AnswerDraft   string            `json:"answerDraft"`
	LoadError     string            `json:"loadError,omitempty"`
}

// NewState starts a view in the loading status
func NewState(qnaID int64) State {
	return State{QnaID: qnaID, Status: StatusLoading}
}

// Loaded applies the initial fetch: the record and both edit buffers
func (s *State) Loaded(rec domain.QnaRecord) {
	s.Refreshed(rec)
	s.EditedTitle = rec.Title
	s.EditedContent = rec.Content
}

// Refreshed replaces the record after a mutation. Edit buffers are kept.
func (s *State) Refreshed(rec domain.QnaRecord) {
	s.Status = StatusLoaded
	s.Record = &rec
	s.LoadError = ""
}

// Failed moves the view into the error status
func (s *State) Failed(err error) {
	s.Status = StatusError
	s.Record = nil
	s.Editing = false
	s.LoadError = err.Error()
}

// Permissions are computed from the session and the loaded record
type Permissions struct {
	IsAuthor            bool `json:"isAuthor"`
	HasAnswerPermission bool `json:"hasAnswerPermission"`
	ShowAnswerForm      bool `json:"showAnswerForm"`
}

// Permissions evaluates what sess may do with the loaded record
func (s *State) Permissions(sess domain.Session) Permissions {
	perms := Permissions{HasAnswerPermission: sess.CanAnswer()}
	if s.Status != StatusLoaded || s.Record == nil {
		return perms
	}
	perms.IsAuthor = sess.Subject != "" && sess.Subject == s.Record.UserID
	perms.ShowAnswerForm = perms.HasAnswerPermission && !s.Record.Answered()
	return perms
}

// RequireAuthor fails unless the record is loaded and sess wrote it
func (s *State) RequireAuthor(sess domain.Session) error {
	if s.Status != StatusLoaded || s.Record == nil {
		return ErrNotLoaded
	}
	if !s.Permissions(sess).IsAuthor {
		return ErrNotAuthor
	}
	return nil
}

// BeginEdit copies the record into the edit buffers
func (s *State) BeginEdit(sess domain.Session) error {
	if err := s.RequireAuthor(sess); err != nil {
		return err
	}
	s.Editing = true
	s.EditedTitle = s.Record.Title
	s.EditedContent = s.Record.Content
	return nil
}

// UpdateBuffers stores in-progress edits
func (s *State) UpdateBuffers(sess domain.Session, title, content string) error {
	if err := s.RequireAuthor(sess); err != nil {
		return err
	}
	if !s.Editing {
		return ErrNotEditing
	}
	s.EditedTitle = title
	s.EditedContent = content
	return nil
}

// CancelEdit leaves edit mode and discards the buffers
func (s *State) CancelEdit() {
	s.Editing = false
	if s.Record != nil {
		s.EditedTitle = s.Record.Title
		s.EditedContent = s.Record.Content
	}
}

// PrepareSave returns the buffers to send, applying optional overrides
func (s *State) PrepareSave(sess domain.Session, title, content *string) (string, string, error) {
	if err := s.RequireAuthor(sess); err != nil {
		return "", "", err
	}
	if !s.Editing {
		return "", "", ErrNotEditing
	}
	if title != nil {
		s.EditedTitle = *title
	}
	if content != nil {
		s.EditedContent = *content
	}
	return s.EditedTitle, s.EditedContent, nil
}

// Saved leaves edit mode after a successful update
func (s *State) Saved() {
	s.Editing = false
}

// SetAnswerDraft stores the answer being typed
func (s *State) SetAnswerDraft(answer string) {
	s.AnswerDraft = answer
}

// PrepareAnswer validates the draft for submission and returns it
func (s *State) PrepareAnswer(sess domain.Session) (string, error) {
	if s.Status != StatusLoaded || s.Record == nil {
		return "", ErrNotLoaded
	}
	if s.Record.Answered() {
		return "", ErrAlreadyAnswered
	}
	if !sess.CanAnswer() {
		return "", ErrNoAnswerPermission
	}
	if strings.TrimSpace(s.AnswerDraft) == "" {
		return "", ErrEmptyAnswer
	}
	return s.AnswerDraft, nil
}

// AnswerSubmitted clears the draft
func (s *State) AnswerSubmitted() {
	s.AnswerDraft = ""
}
