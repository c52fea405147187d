package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRule marks recurrence configuration that cannot be expanded.
var ErrInvalidRule = errors.New("invalid recurrence rule")

type Type string

const (
	Daily     Type = "daily"
	Weekly    Type = "weekly"
	Biweekly  Type = "biweekly"
	Monthly   Type = "monthly"
	Quarterly Type = "quarterly"
	Yearly    Type = "yearly"
)

var knownTypes = map[string]Type{
	"daily":     Daily,
	"weekly":    Weekly,
	"biweekly":  Biweekly,
	"monthly":   Monthly,
	"quarterly": Quarterly,
	"yearly":    Yearly,
}

// ParseType parses a stored recurrence type, case-insensitively.
func ParseType(s string) (Type, error) {
	t, ok := knownTypes[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidRule, s)
	}
	return t, nil
}

// Rule describes when a template is due.
type Rule struct {
	Type   Type
	Day    *int      // weekday 0-6 for weekly/biweekly, day of month 1-31 otherwise (nil = anchor's)
	Anchor time.Time // template creation date; fixes the cadence phase
}

// NewRule builds a rule from a template's stored fields and validates it.
func NewRule(recurrenceType string, day *int, anchor time.Time) (Rule, error) {
	t, err := ParseType(recurrenceType)
	if err != nil {
		return Rule{}, err
	}
	r := Rule{Type: t, Day: day, Anchor: anchor}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Validate checks that Day is in range for the rule's type.
func (r Rule) Validate() error {
	if _, ok := knownTypes[string(r.Type)]; !ok {
		return fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidRule, r.Type)
	}
	if r.Anchor.IsZero() {
		return fmt.Errorf("%w: missing anchor date", ErrInvalidRule)
	}
	if r.Day == nil {
		return nil
	}
	d := *r.Day
	switch r.Type {
	case Daily:
		return fmt.Errorf("%w: daily rule takes no recurrence day", ErrInvalidRule)
	case Weekly, Biweekly:
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: weekday %d out of range 0-6", ErrInvalidRule, d)
		}
	default:
		if d < 1 || d > 31 {
			return fmt.Errorf("%w: day of month %d out of range 1-31", ErrInvalidRule, d)
		}
	}
	return nil
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	switch r.Type {
	case Daily:
		return "Repeats daily"
	case Weekly:
		return "Repeats weekly on " + r.weekday().String()
	case Biweekly:
		return "Repeats every 2 weeks on " + r.weekday().String()
	case Monthly:
		return fmt.Sprintf("Repeats monthly on day %d", r.monthDay())
	case Quarterly:
		return fmt.Sprintf("Repeats every 3 months on day %d", r.monthDay())
	case Yearly:
		return fmt.Sprintf("Repeats yearly on %s %d", r.Anchor.Month(), r.monthDay())
	}
	return ""
}

func (r Rule) weekday() time.Weekday {
	if r.Day != nil {
		return time.Weekday(*r.Day)
	}
	return r.Anchor.Weekday()
}

func (r Rule) monthDay() int {
	if r.Day != nil {
		return *r.Day
	}
	return r.Anchor.Day()
}
