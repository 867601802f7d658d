package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidEvent is returned by Post when an event cannot be folded.
	ErrInvalidEvent = errors.New("invalid processing event")

	// ErrClosed is returned by Post after the channel has been closed.
	ErrClosed = errors.New("progress channel closed")
)

// ProcessingType classifies a processing event.
type ProcessingType int

const (
	// Solve marks project-wide computation progress.
	Solve ProcessingType = iota
	// Resolve marks the completion of one observation realization.
	Resolve
)

// Valid reports whether t is a known processing type.
func (t ProcessingType) Valid() bool {
	return t == Solve || t == Resolve
}

func (t ProcessingType) String() string {
	switch t {
	case Solve:
		return "solve"
	case Resolve:
		return "resolve"
	default:
		return fmt.Sprintf("ProcessingType(%d)", int(t))
	}
}

// ParseProcessingType converts "solve" or "resolve" (any case) to a ProcessingType.
func ParseProcessingType(s string) (ProcessingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "solve":
		return Solve, nil
	case "resolve":
		return Resolve, nil
	default:
		return 0, fmt.Errorf("%w: unknown processing type %q", ErrInvalidEvent, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ProcessingType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown processing type %d", ErrInvalidEvent, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ProcessingType) UnmarshalText(text []byte) error {
	parsed, err := ParseProcessingType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Event is a single processing notification posted on a node's channel.
// ID identifies the contributing realization for Resolve events.
type Event struct {
	Type  ProcessingType `json:"type"`
	Count int            `json:"count"`
	ID    string         `json:"id,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. The type field is required, so
// an arbitrary JSON object never decodes as a Solve event.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  *ProcessingType `json:"type"`
		Count int             `json:"count"`
		ID    string          `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == nil {
		return fmt.Errorf("%w: missing processing type", ErrInvalidEvent)
	}
	*e = Event{Type: *raw.Type, Count: raw.Count, ID: raw.ID}
	return nil
}

// Validate checks that the event can be folded without breaking the
// monotonic count.
func (e Event) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown processing type %d", ErrInvalidEvent, int(e.Type))
	}
	if e.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidEvent, e.Count)
	}
	return nil
}

// Summary is the folded aggregate of a channel's events.
// IDs is nil for count-only summaries and non-nil for id-tracking ones.
type Summary struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// Clone returns a copy that shares no memory with s.
func (s Summary) Clone() Summary {
	if s.IDs == nil {
		return Summary{Count: s.Count}
	}
	return Summary{Count: s.Count, IDs: slices.Clone(s.IDs)}
}

// MarshalJSON omits ids for count-only summaries but keeps an empty list
// for id-tracking ones.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.IDs == nil {
		return json.Marshal(struct {
			Count int `json:"count"`
		}{s.Count})
	}
	return json.Marshal(struct {
		Count int      `json:"count"`
		IDs   []string `json:"ids"`
	}{s.Count, s.IDs})
}
