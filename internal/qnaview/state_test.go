package qnaview

import (
	"errors"
	"testing"
	"time"

	"faishion-storefront/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func record(author string) domain.QnaRecord {
	return domain.QnaRecord{
		ID:        7,
		UserID:    author,
		Title:     "Sizing",
		Content:   "Does it run small?",
		CreatedAt: domain.Timestamp{Time: time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)},
	}
}

var (
	author = domain.Session{Subject: "alice"}
	other  = domain.Session{Subject: "bob"}
	seller = domain.Session{Subject: "carol", Roles: []string{domain.RoleSeller}}
)

func loaded(rec domain.QnaRecord) State {
	s := NewState(rec.ID)
	s.Loaded(rec)
	return s
}

func TestState_LoadedCopiesBuffers(t *testing.T) {
	s := NewState(7)
	assert.Equal(t, StatusLoading, s.Status)

	s.Loaded(record("alice"))
	assert.Equal(t, StatusLoaded, s.Status)
	assert.Equal(t, "Sizing", s.EditedTitle)
	assert.Equal(t, "Does it run small?", s.EditedContent)
	assert.False(t, s.Editing)
}

func TestState_FailedClearsRecord(t *testing.T) {
	s := loaded(record("alice"))
	s.Editing = true

	s.Failed(errors.New("boom"))
	assert.Equal(t, StatusError, s.Status)
	assert.Nil(t, s.Record)
	assert.False(t, s.Editing)
	assert.Equal(t, "boom", s.LoadError)
}

func TestState_Permissions(t *testing.T) {
	s := loaded(record("alice"))

	assert.Equal(t, Permissions{IsAuthor: true}, s.Permissions(author))
	assert.Equal(t, Permissions{}, s.Permissions(other))
	assert.Equal(t, Permissions{HasAnswerPermission: true, ShowAnswerForm: true}, s.Permissions(seller))

	answered := record("alice")
	answered.Answer = strPtr("True to size")
	s = loaded(answered)
	assert.False(t, s.Permissions(seller).ShowAnswerForm)
	assert.True(t, s.Permissions(seller).HasAnswerPermission)

	// Anonymous sessions never match a record, even one with an empty author
	s = loaded(record(""))
	assert.False(t, s.Permissions(domain.Session{}).IsAuthor)
}

func TestState_PermissionsBeforeLoad(t *testing.T) {
	s := NewState(7)
	assert.Equal(t, Permissions{HasAnswerPermission: true}, s.Permissions(seller))
	assert.ErrorIs(t, s.BeginEdit(author), ErrNotLoaded)
}

func TestState_EditFlow(t *testing.T) {
	s := loaded(record("alice"))

	assert.ErrorIs(t, s.BeginEdit(other), ErrNotAuthor)
	assert.ErrorIs(t, s.UpdateBuffers(author, "x", "y"), ErrNotEditing)

	require.NoError(t, s.BeginEdit(author))
	require.NoError(t, s.UpdateBuffers(author, "New title", "New content"))
	assert.Equal(t, "New title", s.EditedTitle)

	s.CancelEdit()
	assert.False(t, s.Editing)
	assert.Equal(t, "Sizing", s.EditedTitle)
	assert.Equal(t, "Does it run small?", s.EditedContent)
}

func TestState_PrepareSave(t *testing.T) {
	s := loaded(record("alice"))

	_, _, err := s.PrepareSave(author, nil, nil)
	assert.ErrorIs(t, err, ErrNotEditing)

	require.NoError(t, s.BeginEdit(author))
	require.NoError(t, s.UpdateBuffers(author, "Draft title", "Draft content"))

	title, content, err := s.PrepareSave(author, nil, strPtr("Final content"))
	require.NoError(t, err)
	assert.Equal(t, "Draft title", title)
	assert.Equal(t, "Final content", content)

	_, _, err = s.PrepareSave(other, nil, nil)
	assert.ErrorIs(t, err, ErrNotAuthor)

	s.Saved()
	assert.False(t, s.Editing)
}

func TestState_RefreshKeepsBuffers(t *testing.T) {
	s := loaded(record("alice"))
	require.NoError(t, s.BeginEdit(author))
	require.NoError(t, s.UpdateBuffers(author, "Mine", "Mine too"))

	updated := record("alice")
	updated.Title = "Server title"
	s.Refreshed(updated)

	assert.Equal(t, "Server title", s.Record.Title)
	assert.Equal(t, "Mine", s.EditedTitle)
	assert.True(t, s.Editing)
}

func TestState_PrepareAnswer(t *testing.T) {
	s := loaded(record("alice"))

	_, err := s.PrepareAnswer(seller)
	assert.ErrorIs(t, err, ErrEmptyAnswer)

	s.SetAnswerDraft("   ")
	_, err = s.PrepareAnswer(seller)
	assert.ErrorIs(t, err, ErrEmptyAnswer)

	s.SetAnswerDraft("It runs true to size")
	_, err = s.PrepareAnswer(other)
	assert.ErrorIs(t, err, ErrNoAnswerPermission)

	answer, err := s.PrepareAnswer(seller)
	require.NoError(t, err)
	assert.Equal(t, "It runs true to size", answer)

	s.AnswerSubmitted()
	assert.Empty(t, s.AnswerDraft)

	answered := record("alice")
	answered.Answer = strPtr("done")
	s = loaded(answered)
	s.SetAnswerDraft("again")
	_, err = s.PrepareAnswer(seller)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestState_Render(t *testing.T) {
	rec := record("alice")
	rec.Answer = strPtr("Yes")
	d := loaded(rec).Render(author)

	assert.Equal(t, "2024.03.09", d.CreatedDate)
	assert.Equal(t, DefaultAnswerer, d.AnsweredBy)
	assert.True(t, d.Permissions.IsAuthor)

	rec.AnsweredBy = strPtr("FAISHION Store")
	assert.Equal(t, "FAISHION Store", loaded(rec).Render(author).AnsweredBy)

	assert.Empty(t, loaded(record("alice")).Render(author).AnsweredBy)
	assert.Empty(t, NewState(7).Render(author).CreatedDate)
}

// Property: only the record's author can ever enter edit mode
func TestProperty_OnlyAuthorEdits(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("BeginEdit succeeds iff the subject matches the author", prop.ForAll(
		func(owner, subject string) bool {
			s := loaded(record(owner))
			err := s.BeginEdit(domain.Session{Subject: subject})
			if subject != "" && subject == owner {
				return err == nil && s.Editing
			}
			return errors.Is(err, ErrNotAuthor) && !s.Editing
		},
		gen.OneConstOf("alice", "bob", ""),
		gen.OneConstOf("alice", "bob", ""),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
