package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mixedEvents = []Event{
	{Type: Resolve, Count: 1, ID: "r1"},
	{Type: Solve, Count: 5},
	{Type: Resolve, Count: 1, ID: "r2"},
}

func TestFold(t *testing.T) {
	tests := []struct {
		name   string
		step   FoldFunc
		zero   Summary
		events []Event
		want   Summary
	}{
		{
			name:   "Root counts every type",
			step:   CountAll,
			zero:   Summary{},
			events: mixedEvents,
			want:   Summary{Count: 7},
		},
		{
			name:   "Observation mesh ignores solve",
			step:   CountResolved,
			zero:   Summary{IDs: []string{}},
			events: mixedEvents,
			want:   Summary{Count: 2, IDs: []string{"r1", "r2"}},
		},
		{
			name: "Duplicate ids are appended",
			step: CountResolved,
			zero: Summary{IDs: []string{}},
			events: []Event{
				{Type: Resolve, Count: 1, ID: "r1"},
				{Type: Resolve, Count: 1, ID: "r1"},
			},
			want: Summary{Count: 2, IDs: []string{"r1", "r1"}},
		},
		{
			name: "Malformed events are skipped",
			step: CountAll,
			zero: Summary{},
			events: []Event{
				{Type: ProcessingType(9), Count: 100},
				{Type: Solve, Count: -3},
				{Type: Solve, Count: 2},
			},
			want: Summary{Count: 2},
		},
		{
			name: "Empty sequence is the zero summary",
			step: CountResolved,
			zero: Summary{IDs: []string{}},
			want: Summary{IDs: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.step, tt.zero, tt.events...))
		})
	}
}

func TestCountAll_RootExample(t *testing.T) {
	// 1 + 5 + 1: the root sums every event regardless of type.
	got := Fold(CountAll, Summary{}, mixedEvents...)
	assert.Equal(t, 7, got.Count)
	assert.Nil(t, got.IDs)
}

func TestCountResolved_DoesNotAliasPreviousSnapshot(t *testing.T) {
	first, ok := CountResolved(Summary{IDs: make([]string, 0, 8)}, Event{Type: Resolve, Count: 1, ID: "a"})
	require.True(t, ok)

	second, _ := CountResolved(first, Event{Type: Resolve, Count: 1, ID: "b"})
	third, _ := CountResolved(first, Event{Type: Resolve, Count: 1, ID: "c"})

	assert.Equal(t, []string{"a"}, first.IDs)
	assert.Equal(t, []string{"a", "b"}, second.IDs)
	assert.Equal(t, []string{"a", "c"}, third.IDs)
}

func TestProcessingType_Text(t *testing.T) {
	for _, pt := range []ProcessingType{Solve, Resolve} {
		text, err := pt.MarshalText()
		require.NoError(t, err)

		var back ProcessingType
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, pt, back)
	}

	_, err := ProcessingType(4).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = ParseProcessingType("explode")
	assert.ErrorIs(t, err, ErrInvalidEvent)

	pt, err := ParseProcessingType(" RESOLVE ")
	require.NoError(t, err)
	assert.Equal(t, Resolve, pt)
}

func TestEvent_UnmarshalJSON(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(`{"type":"resolve","count":2,"id":"r1"}`), &e))
	assert.Equal(t, Event{Type: Resolve, Count: 2, ID: "r1"}, e)

	for _, data := range []string{
		`{"count":3}`,
		`{"type":null,"count":3}`,
		`{"level":"info","msg":"iteration done","count":5}`,
		`{"type":"compile","count":1}`,
	} {
		err := json.Unmarshal([]byte(data), &e)
		assert.ErrorIs(t, err, ErrInvalidEvent, data)
	}
}

func TestSummary_JSON(t *testing.T) {
	t.Run("Count only omits ids", func(t *testing.T) {
		b, err := json.Marshal(Summary{Count: 3})
		require.NoError(t, err)
		assert.JSONEq(t, `{"count":3}`, string(b))
	})

	t.Run("Id tracking keeps empty list", func(t *testing.T) {
		b, err := json.Marshal(Summary{IDs: []string{}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"count":0,"ids":[]}`, string(b))
	})

	t.Run("Event decodes named type", func(t *testing.T) {
		var e Event
		require.NoError(t, json.Unmarshal([]byte(`{"type":"resolve","count":1,"id":"r9"}`), &e))
		assert.Equal(t, Event{Type: Resolve, Count: 1, ID: "r9"}, e)
	})
}
