package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tiago918/app-chamadas/pkg/event"
)

// Kind identifies a rule variant.
type Kind string

const (
	KindBlacklist     Kind = "blacklist"
	KindWhitelist     Kind = "whitelist"
	KindPrefix        Kind = "prefix"
	KindKeyword       Kind = "keyword"
	KindRegex         Kind = "regex"
	KindInternational Kind = "international"
	KindShortCode     Kind = "short_code"
	KindTimeBased     Kind = "time_based"
)

// Rule is the stored form of a matching rule. Rules are evaluated in
// descending priority order; the first active, applicable match wins.
type Rule struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Kind     Kind   `yaml:"kind"`
	Pattern  string `yaml:"pattern,omitempty"`
	Active   bool   `yaml:"active"`
	Priority int    `yaml:"priority"`
}

// Allows reports whether a match on this rule signals "do not block".
func (r *Rule) Allows() bool {
	return r.Kind == KindWhitelist
}

// predicate is the compiled form of one rule variant. Each variant carries
// only the state it needs for matching.
type predicate interface {
	matches(sender, content string, at time.Time) bool
}

type numberPredicate struct {
	number string
	// allow is informational only; whitelist and blacklist share exact
	// number matching
}

func (p numberPredicate) matches(sender, _ string, _ time.Time) bool {
	return event.NormalizeNumber(sender) == p.number
}

type prefixPredicate struct {
	prefix string
}

func (p prefixPredicate) matches(sender, _ string, _ time.Time) bool {
	return strings.HasPrefix(event.NormalizeNumber(sender), p.prefix)
}

type keywordPredicate struct {
	word string
}

func (p keywordPredicate) matches(_, content string, _ time.Time) bool {
	if content == "" {
		return false
	}
	return strings.Contains(strings.ToLower(content), p.word)
}

type regexPredicate struct {
	re *regexp.Regexp
}

func (p regexPredicate) matches(_, content string, _ time.Time) bool {
	if content == "" {
		return false
	}
	return p.re.MatchString(content)
}

type internationalPredicate struct {
	homePrefix string
}

func (p internationalPredicate) matches(sender, _ string, _ time.Time) bool {
	number := event.NormalizeNumber(sender)
	if !strings.HasPrefix(number, "+") {
		return false
	}
	return !strings.HasPrefix(number, p.homePrefix)
}

type shortCodePredicate struct {
	maxDigits int
}

func (p shortCodePredicate) matches(sender, _ string, _ time.Time) bool {
	digits := event.Digits(sender)
	return len(digits) > 0 && len(digits) <= p.maxDigits
}

type timeWindowPredicate struct {
	fromHour, toHour int
}

func (p timeWindowPredicate) matches(_, _ string, at time.Time) bool {
	h := at.Hour()
	if p.fromHour <= p.toHour {
		return h >= p.fromHour && h < p.toHour
	}
	// Window wraps midnight, e.g. 22-6
	return h >= p.fromHour || h < p.toHour
}

// compile builds the predicate for a rule. A malformed pattern is a
// configuration error: the caller skips the rule instead of failing the
// evaluation.
func compile(r Rule, homePrefix string, shortCodeMaxDigits int) (predicate, error) {
	switch r.Kind {
	case KindBlacklist, KindWhitelist:
		number := event.NormalizeNumber(r.Pattern)
		if number == "" {
			return nil, fmt.Errorf("rule %s: empty number pattern", r.ID)
		}
		return numberPredicate{number: number}, nil

	case KindPrefix:
		prefix := event.NormalizeNumber(r.Pattern)
		if prefix == "" {
			return nil, fmt.Errorf("rule %s: empty prefix pattern", r.ID)
		}
		return prefixPredicate{prefix: prefix}, nil

	case KindKeyword:
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, fmt.Errorf("rule %s: empty keyword pattern", r.ID)
		}
		return keywordPredicate{word: strings.ToLower(r.Pattern)}, nil

	case KindRegex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid regex: %v", r.ID, err)
		}
		return regexPredicate{re: re}, nil

	case KindInternational:
		prefix := homePrefix
		if r.Pattern != "" {
			prefix = event.NormalizeNumber(r.Pattern)
		}
		if prefix == "" {
			return nil, fmt.Errorf("rule %s: no home prefix configured", r.ID)
		}
		return internationalPredicate{homePrefix: prefix}, nil

	case KindShortCode:
		maxDigits := shortCodeMaxDigits
		if r.Pattern != "" {
			n, err := strconv.Atoi(r.Pattern)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("rule %s: short code length must be a positive integer", r.ID)
			}
			maxDigits = n
		}
		return shortCodePredicate{maxDigits: maxDigits}, nil

	case KindTimeBased:
		from, to, err := parseHourWindow(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %v", r.ID, err)
		}
		return timeWindowPredicate{fromHour: from, toHour: to}, nil

	default:
		return nil, fmt.Errorf("rule %s: unknown kind %q", r.ID, r.Kind)
	}
}

// parseHourWindow parses "HH-HH" or "HH:MM-HH:MM" (minutes discarded).
func parseHourWindow(pattern string) (int, int, error) {
	parts := strings.Split(pattern, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time window must be 'HH-HH', got %q", pattern)
	}
	from, err := parseHour(parts[0])
	if err != nil {
		return 0, 0, err
	}
	to, err := parseHour(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

func parseHour(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	h, err := strconv.Atoi(s)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	return h, nil
}
