package event

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Kind distinguishes observed telephony activity.
type Kind string

const (
	KindCall Kind = "call"
	KindSMS  Kind = "sms"
)

// CallDirection describes how a call was handled on the device.
type CallDirection string

const (
	CallIncoming CallDirection = "incoming"
	CallOutgoing CallDirection = "outgoing"
	CallMissed   CallDirection = "missed"
)

// MessageDirection describes SMS flow relative to the device.
type MessageDirection string

const (
	MessageReceived MessageDirection = "received"
	MessageSent     MessageDirection = "sent"
)

// Event is a single observed call or message. Events are produced by the
// telephony observer and consumed once by the detection engine; they are
// never mutated after construction.
type Event struct {
	Kind      Kind
	Sender    string
	Contact   string
	Body      string
	Timestamp time.Time
	Duration  time.Duration
	CallDir   CallDirection
	MsgDir    MessageDirection
}

// NewCall builds a call event. A zero timestamp is replaced with now.
func NewCall(sender, contact string, ts time.Time, duration time.Duration, dir CallDirection) Event {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Event{
		Kind:      KindCall,
		Sender:    sender,
		Contact:   contact,
		Timestamp: ts,
		Duration:  duration,
		CallDir:   dir,
	}
}

// NewSMS builds a message event. A zero timestamp is replaced with now.
func NewSMS(sender, body string, ts time.Time, dir MessageDirection) Event {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Event{
		Kind:      KindSMS,
		Sender:    sender,
		Body:      body,
		Timestamp: ts,
		MsgDir:    dir,
	}
}

// ContentStats holds per-message content measurements shared by the feature
// extractor and the behavioral profiler.
type ContentStats struct {
	Length           int
	URLCount         int
	CapsRatio        float64
	ExclamationCount int
	Keywords         []string
}

var urlRegex = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+|\b[a-z0-9-]+\.(?:com|net|org|io|ly|me|info|biz)(?:/\S*)?`)

// ScanContent measures a message body against the given keyword list.
// Keywords are matched case-insensitively as substrings.
func ScanContent(body string, keywords []string) ContentStats {
	stats := ContentStats{Length: len(body)}
	if body == "" {
		return stats
	}

	stats.URLCount = len(urlRegex.FindAllString(body, -1))

	var letters, upper int
	for _, r := range body {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if r == '!' {
			stats.ExclamationCount++
		}
	}
	if letters > 0 {
		stats.CapsRatio = float64(upper) / float64(letters)
	}

	lower := strings.ToLower(body)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			stats.Keywords = append(stats.Keywords, strings.ToLower(kw))
		}
	}

	return stats
}

// NormalizeNumber strips formatting characters from a phone number, keeping
// digits and a leading plus sign.
func NormalizeNumber(number string) string {
	var b strings.Builder
	for i, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Digits returns the digit portion of a normalized number.
func Digits(number string) string {
	return strings.TrimPrefix(NormalizeNumber(number), "+")
}
