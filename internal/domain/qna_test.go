package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_AcceptsBackendFormats(t *testing.T) {
	cases := map[string]time.Time{
		`"2025-03-09T14:05:00Z"`:       time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC),
		`"2025-03-09T14:05:00"`:        time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC),
		`"2025-03-09T14:05:00.123456"`: time.Date(2025, 3, 9, 14, 5, 0, 123456000, time.UTC),
		`"2025-03-09 14:05"`:           time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC),
		`"2025-03-09"`:                 time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
	}

	for input, want := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(input), &ts), input)
		assert.True(t, want.Equal(ts.Time), "%s parsed as %v", input, ts.Time)
	}
}

func TestTimestamp_NullAndInvalid(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))

	data, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestQnaRecord_Answered(t *testing.T) {
	empty := ""
	text := "Ships tomorrow."

	assert.False(t, (&QnaRecord{}).Answered())
	assert.False(t, (&QnaRecord{Answer: &empty}).Answered())
	assert.True(t, (&QnaRecord{Answer: &text}).Answered())
}

func TestQnaRecord_DecodesBackendPayload(t *testing.T) {
	payload := `{"id":7,"user_id":"kim","title":"Size?","content":"Runs small?",
		"created_at":"2025-01-02T10:00:00","answer":null,"answered_by":null}`

	var rec QnaRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))
	assert.Equal(t, "kim", rec.UserID)
	assert.Nil(t, rec.Answer)
	assert.Equal(t, 2025, rec.CreatedAt.Year())
}

func TestSession_Roles(t *testing.T) {
	assert.True(t, Session{Roles: []string{"USER", RoleSeller}}.CanAnswer())
	assert.True(t, Session{Roles: []string{RoleAdmin}}.CanAnswer())
	assert.False(t, Session{Roles: []string{"USER"}}.CanAnswer())
	assert.False(t, Session{}.CanAnswer())
}
