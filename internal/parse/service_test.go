package parse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCompleter returns a canned response or error.
type stubCompleter struct {
	response string
	err      error
	gotSys   string
	gotUser  string
}

func (s *stubCompleter) Complete(_ context.Context, systemPrompt, userText string) (string, error) {
	s.gotSys = systemPrompt
	s.gotUser = userText
	return s.response, s.err
}

func fixedClock() time.Time {
	// A Wednesday.
	return time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)
}

func TestParseStructuredResponse(t *testing.T) {
	stub := &stubCompleter{response: `{
		"title": "Finish English essay",
		"description": "Finish the essay for English class",
		"priority": "urgent",
		"tags": ["school", "assignment"],
		"dueDate": "2025-04-07T09:00:00Z",
		"reminderMinutes": 60
	}`}
	svc := NewService(stub, WithClock(fixedClock))

	draft, err := svc.Parse(context.Background(), "Urgent: finish essay by Monday morning for English class")
	require.NoError(t, err)

	assert.Equal(t, "Finish English essay", draft.Title)
	assert.Equal(t, "Finish the essay for English class", draft.Description)
	assert.Equal(t, "urgent", string(draft.Priority))
	assert.Equal(t, []string{"school", "assignment"}, draft.Tags)
	require.NotNil(t, draft.DueDate)
	assert.Equal(t, time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC), *draft.DueDate)
	require.NotNil(t, draft.ReminderMinutes)
	assert.Equal(t, 60, *draft.ReminderMinutes)
	assert.False(t, draft.Degraded)
}

func TestParseDateContext(t *testing.T) {
	stub := &stubCompleter{response: `{"title": "X"}`}
	svc := NewService(stub, WithClock(fixedClock))

	_, err := svc.Parse(context.Background(), "do a thing")
	require.NoError(t, err)

	assert.Contains(t, stub.gotSys, "Today's date: 2025-04-02")
	assert.Contains(t, stub.gotSys, "Tomorrow's date: 2025-04-03")
	assert.Contains(t, stub.gotSys, "Next Monday: 2025-04-07")
	assert.Contains(t, stub.gotSys, "Current timezone: UTC")
	assert.Equal(t, "do a thing", stub.gotUser)
}

func TestParseNextMondayFromMonday(t *testing.T) {
	monday := func() time.Time {
		return time.Date(2025, 4, 7, 8, 0, 0, 0, time.UTC)
	}
	stub := &stubCompleter{response: `{"title": "X"}`}
	svc := NewService(stub, WithClock(monday))

	_, err := svc.Parse(context.Background(), "next monday")
	require.NoError(t, err)

	// "Next Monday" on a Monday means a week out, not today.
	assert.Contains(t, stub.gotSys, "Next Monday: 2025-04-14")
}

func TestParseStripsCodeFences(t *testing.T) {
	stub := &stubCompleter{response: "```json\n{\"title\": \"Call dentist\"}\n```"}
	svc := NewService(stub)

	draft, err := svc.Parse(context.Background(), "call dentist")
	require.NoError(t, err)
	assert.Equal(t, "Call dentist", draft.Title)
	assert.False(t, draft.Degraded)
}

func TestParseClampsLongTitle(t *testing.T) {
	long := strings.Repeat("a", 150)
	stub := &stubCompleter{response: `{"title": "` + long + `"}`}
	svc := NewService(stub)

	draft, err := svc.Parse(context.Background(), "something")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 100)+"...", draft.Title)
}

func TestParseDropsInvalidFields(t *testing.T) {
	stub := &stubCompleter{response: `{
		"title": "Valid title",
		"priority": "sometime",
		"dueDate": "next tuesday",
		"reminderMinutes": -5,
		"tags": ["ok", 42, "", "also-ok"]
	}`}
	svc := NewService(stub)

	draft, err := svc.Parse(context.Background(), "something")
	require.NoError(t, err)
	assert.Equal(t, "Valid title", draft.Title)
	assert.Empty(t, string(draft.Priority))
	assert.Nil(t, draft.DueDate)
	assert.Nil(t, draft.ReminderMinutes)
	assert.Equal(t, []string{"ok", "also-ok"}, draft.Tags)
	assert.False(t, draft.Degraded)
}

func TestParseCapsTags(t *testing.T) {
	tags := make([]string, 0, 12)
	for _, s := range strings.Split("a b c d e f g h i j k l", " ") {
		tags = append(tags, `"`+s+`"`)
	}
	stub := &stubCompleter{response: `{"title": "T", "tags": [` + strings.Join(tags, ",") + `]}`}
	svc := NewService(stub)

	draft, err := svc.Parse(context.Background(), "something")
	require.NoError(t, err)
	assert.Len(t, draft.Tags, 10)
}

func TestParseFallbackOnMalformedJSON(t *testing.T) {
	stub := &stubCompleter{response: "Sure! Here's your task: finish the essay."}
	svc := NewService(stub)

	input := "Urgent: finish essay by Monday morning for English class"
	draft, err := svc.Parse(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, draft.Degraded)
	assert.NotEmpty(t, draft.DegradedReason)
	assert.Equal(t, "Finish Essay By Monday Morning For English Class", draft.Title)
	assert.Nil(t, draft.DueDate)
	assert.Empty(t, draft.Tags)
}

func TestParseFallbackKeepsLongInputAsDescription(t *testing.T) {
	stub := &stubCompleter{response: "not json"}
	svc := NewService(stub)

	input := "buy milk and also pick up the dry cleaning on the way home before the shop closes at six"
	draft, err := svc.Parse(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, draft.Degraded)
	assert.Equal(t, "Buy Milk And Also Pick Up The Dry", draft.Title)
	assert.Equal(t, input, draft.Description)
}

func TestParseFallbackOnMissingTitle(t *testing.T) {
	stub := &stubCompleter{response: `{"description": "no title here"}`}
	svc := NewService(stub)

	draft, err := svc.Parse(context.Background(), "water the plants")
	require.NoError(t, err)
	assert.True(t, draft.Degraded)
	assert.Equal(t, "Water The Plants", draft.Title)
}

func TestParseFallbackOnTransportError(t *testing.T) {
	stub := &stubCompleter{err: errors.New("connection refused")}
	svc := NewService(stub)

	draft, err := svc.Parse(context.Background(), "please remember to buy milk")
	require.NoError(t, err)
	assert.True(t, draft.Degraded)
	assert.Equal(t, "connection refused", draft.DegradedReason)
	assert.Equal(t, "Buy Milk", draft.Title)
}

func TestParseFallbackDeterministic(t *testing.T) {
	stub := &stubCompleter{err: errors.New("boom")}
	svc := NewService(stub)

	first, err := svc.Parse(context.Background(), "need to schedule dentist appointment asap")
	require.NoError(t, err)
	second, err := svc.Parse(context.Background(), "need to schedule dentist appointment asap")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseCustomFillerWords(t *testing.T) {
	stub := &stubCompleter{err: errors.New("boom")}
	svc := NewService(stub, WithFillerWords([]string{"kindly"}))

	draft, err := svc.Parse(context.Background(), "kindly water the plants")
	require.NoError(t, err)
	assert.Equal(t, "Water The Plants", draft.Title)

	// The default table no longer applies.
	draft, err = svc.Parse(context.Background(), "please call mom")
	require.NoError(t, err)
	assert.Equal(t, "Please Call Mom", draft.Title)
}

func TestParseEmptyInput(t *testing.T) {
	svc := NewService(&stubCompleter{response: `{"title": "X"}`})

	_, err := svc.Parse(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseMissingKeyIsHardError(t *testing.T) {
	svc := NewService(NewOpenAIClient("", "", ""))

	_, err := svc.Parse(context.Background(), "buy milk")
	require.ErrorIs(t, err, ErrNoAPIKey)
}
