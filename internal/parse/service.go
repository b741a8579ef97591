// Package parse turns free-text input into a structured task draft.
//
// The natural-language understanding itself is delegated to an external
// completion model; this package owns input sanitization, strict validation
// of the model's JSON response, and a deterministic heuristic fallback so a
// caller always gets a usable draft.
package parse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/kirstym/tasknest/embed/prompts"
	"github.com/kirstym/tasknest/internal/logging"
	"github.com/kirstym/tasknest/pkg/models"
)

const (
	maxTitleLen     = 100
	maxTags         = 10
	fallbackMaxWord = 8
)

// ErrEmptyInput is returned when there is nothing to parse.
var ErrEmptyInput = errors.New("input text is required")

// defaultFillerWords are stripped before deriving a fallback title.
var defaultFillerWords = []string{
	"urgent", "asap", "please", "need to", "have to", "should", "must", "remember to",
}

// Completer is the external completion API collaborator.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// Service is the task-parse service.
type Service struct {
	llm     Completer
	now     func() time.Time
	fillers []*regexp.Regexp
	log     zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for the date context.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFillerWords replaces the filler-word table used by the fallback.
func WithFillerWords(words []string) Option {
	return func(s *Service) { s.fillers = compileFillers(words) }
}

func NewService(llm Completer, opts ...Option) *Service {
	s := &Service{
		llm:     llm,
		now:     time.Now,
		fillers: compileFillers(defaultFillerWords),
		log:     logging.Component("parse"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parse produces a draft for the given free text. A missing credential or
// empty input is an error; every other failure (unreachable API, non-2xx,
// malformed or titleless JSON) degrades to the heuristic fallback, so a
// non-error result always carries a non-empty title.
func (s *Service) Parse(ctx context.Context, input string) (*models.ParsedTaskDraft, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	raw, err := s.llm.Complete(ctx, s.systemPrompt(), input)
	if err != nil {
		if errors.Is(err, ErrNoAPIKey) {
			return nil, err
		}
		s.log.Warn().Err(err).Msg("completion call failed, using fallback")
		return s.fallback(input, err.Error()), nil
	}

	draft, err := s.validate(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("model response rejected, using fallback")
		return s.fallback(input, err.Error()), nil
	}

	return draft, nil
}

// systemPrompt assembles the parse prompt around a date context so relative
// expressions like "tomorrow" and "next Monday" resolve to absolute dates.
func (s *Service) systemPrompt() string {
	return prompts.ParseHeader + "\n" + s.dateContext() + "\n\n" + prompts.ParseRules
}

func (s *Service) dateContext() string {
	now := s.now().UTC()
	today := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	return fmt.Sprintf(`CURRENT CONTEXT:
- Today's date: %s
- Tomorrow's date: %s
- Current time: %s
- Next Monday: %s
- Current timezone: UTC`,
		today, tomorrow, now.Format("15:04:05"), nextMonday(now).Format("2006-01-02"))
}

// nextMonday returns the next Monday strictly after now's date.
func nextMonday(now time.Time) time.Time {
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}

// validate parses the model output and applies the draft's shape rules.
// Offending optional fields are dropped; a missing title fails the whole
// response and sends the caller to the fallback.
func (s *Service) validate(raw string) (*models.ParsedTaskDraft, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(stripFences(raw)), &fields); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	title, _ := fields["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("response missing title")
	}

	draft := &models.ParsedTaskDraft{Title: clampTitle(title)}

	if desc, ok := fields["description"].(string); ok && strings.TrimSpace(desc) != "" {
		draft.Description = desc
	}

	if p, ok := fields["priority"].(string); ok && models.ValidPriority(models.Priority(p)) {
		draft.Priority = models.Priority(p)
	}

	if rawTags, ok := fields["tags"].([]any); ok {
		for _, rt := range rawTags {
			tag, ok := rt.(string)
			if !ok || strings.TrimSpace(tag) == "" {
				continue
			}
			draft.Tags = append(draft.Tags, tag)
			if len(draft.Tags) == maxTags {
				break
			}
		}
	}

	if rawDate, ok := fields["dueDate"].(string); ok {
		if due, err := time.Parse(time.RFC3339, rawDate); err == nil {
			utc := due.UTC()
			draft.DueDate = &utc
		} else {
			s.log.Debug().Str("due_date", rawDate).Msg("dropping unparseable due date")
		}
	}

	if mins, ok := fields["reminderMinutes"].(float64); ok {
		m := int(mins)
		if m > 0 {
			draft.ReminderMinutes = &m
		}
	}

	return draft, nil
}

// fallback derives a draft from the input alone: strip filler words, take
// the first few remaining words as a title-cased title, and keep the full
// input as the description when it carries more than the title does.
func (s *Service) fallback(input, reason string) *models.ParsedTaskDraft {
	title := s.extractCleanTitle(input)

	draft := &models.ParsedTaskDraft{
		Title:          clampTitle(title),
		Degraded:       true,
		DegradedReason: reason,
	}
	if len(input) > len(title)+20 {
		draft.Description = input
	}

	return draft
}

func (s *Service) extractCleanTitle(input string) string {
	clean := strings.ToLower(input)
	for _, re := range s.fillers {
		clean = re.ReplaceAllString(clean, "")
	}

	var words []string
	for _, w := range strings.Fields(clean) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w == "" {
			continue
		}
		words = append(words, capitalize(w))
		if len(words) == fallbackMaxWord {
			break
		}
	}

	if len(words) == 0 {
		if len(input) > 50 {
			return input[:50]
		}
		return input
	}

	return strings.Join(words, " ")
}

func compileFillers(words []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		res = append(res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return res
}

func capitalize(w string) string {
	r := []rune(w)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func clampTitle(title string) string {
	r := []rune(title)
	if len(r) <= maxTitleLen {
		return title
	}
	return string(r[:maxTitleLen]) + "..."
}

// stripFences removes a markdown code-fence wrapper from a model response.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
