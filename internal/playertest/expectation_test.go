package playertest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ev(name string, data map[string]any) Event {
	return Event{Name: name, NativeID: "p", Data: data}
}

// feed offers events until the tracker is satisfied and returns the names
// of the consumed events.
func feed(t *testing.T, exp Expectation, events ...Event) ([]string, bool) {
	t.Helper()
	tr, err := exp.start()
	require.NoError(t, err)
	var consumed []string
	for _, e := range events {
		c, done := tr.observe(e)
		if c {
			consumed = append(consumed, e.Name)
		}
		if done {
			return consumed, true
		}
	}
	return consumed, false
}

func TestExpectations(t *testing.T) {
	tc := func(v float64) Event { return ev("onTimeChanged", map[string]any{"currentTime": v}) }

	for _, tt := range []struct {
		name     string
		exp      Expectation
		events   []Event
		consumed []string
		done     bool
	}{
		{
			name:     "plain",
			exp:      Plain("onReady"),
			events:   []Event{ev("onSourceLoaded", nil), ev("onReady", nil)},
			consumed: []string{"onReady"},
			done:     true,
		},
		{
			name:   "plain pending",
			exp:    Plain("onReady"),
			events: []Event{ev("onPlay", nil)},
		},
		{
			name:     "filtered",
			exp:      Filtered("onTimeChanged", func(e Event) bool { v, _ := e.Float("currentTime"); return v > 2 }),
			events:   []Event{tc(1), tc(2), tc(3)},
			consumed: []string{"onTimeChanged"},
			done:     true,
		},
		{
			name:     "where",
			exp:      Where("onTimeChanged", `event.currentTime >= 2 && nativeId == "p"`),
			events:   []Event{tc(1), tc(2.5)},
			consumed: []string{"onTimeChanged"},
			done:     true,
		},
		{
			name:     "sequence ignores events in between",
			exp:      Sequence(Plain("onPlay"), Plain("onPlaying"), Plain("onPaused")),
			events:   []Event{ev("onPlay", nil), tc(1), ev("onPlaying", nil), ev("onPaused", nil)},
			consumed: []string{"onPlay", "onPlaying", "onPaused"},
			done:     true,
		},
		{
			name:     "sequence requires order",
			exp:      Sequence(Plain("onPlaying"), Plain("onPlay")),
			events:   []Event{ev("onPlay", nil), ev("onPlaying", nil)},
			consumed: []string{"onPlaying"},
		},
		{
			name:     "bag in any order",
			exp:      Bag(Plain("onPlaying"), Plain("onPlay")),
			events:   []Event{ev("onPlay", nil), ev("onPlaying", nil)},
			consumed: []string{"onPlay", "onPlaying"},
			done:     true,
		},
		{
			name:     "bag counts each event once",
			exp:      Bag(Plain("onMuted"), Plain("onMuted")),
			events:   []Event{ev("onMuted", nil)},
			consumed: []string{"onMuted"},
		},
		{
			name:     "repeated",
			exp:      Repeated(Plain("onTimeChanged"), 3),
			events:   []Event{tc(1), ev("onPlay", nil), tc(2), tc(3), tc(4)},
			consumed: []string{"onTimeChanged", "onTimeChanged", "onTimeChanged"},
			done:     true,
		},
		{
			name:     "any",
			exp:      AnyOf(Plain("onReady"), Plain("onSourceError")),
			events:   []Event{ev("onSourceLoad", nil), ev("onSourceError", nil)},
			consumed: []string{"onSourceError"},
			done:     true,
		},
		{
			name:     "nested",
			exp:      Sequence(Plain("onPlay"), Bag(Plain("onMuted"), Plain("onSeeked"))),
			events:   []Event{ev("onMuted", nil), ev("onPlay", nil), ev("onSeeked", nil), ev("onMuted", nil)},
			consumed: []string{"onPlay", "onSeeked", "onMuted"},
			done:     true,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			consumed, done := feed(t, tt.exp, tt.events...)
			assert.Equal(t, tt.done, done)
			if diff := cmp.Diff(tt.consumed, consumed); diff != "" {
				t.Errorf("consumed events (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWhere_InvalidExpression(t *testing.T) {
	_, err := Where("onPlay", "event.currentTime >=").start()
	assert.Error(t, err)
	_, err = Where("onPlay", "").start()
	assert.Error(t, err)
}

func TestComposite_Empty(t *testing.T) {
	_, err := Sequence().start()
	assert.Error(t, err)
}

func TestRepeated_NonPositiveCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		var e Expectation
		require.NotPanics(t, func() { e = Repeated(Plain("onTimeChanged"), n) })
		_, err := e.start()
		assert.ErrorContains(t, err, "count must be positive")
	}
	tr, err := Repeated(Plain("onTimeChanged"), 1).start()
	require.NoError(t, err)
	_, done := tr.observe(Event{Name: "onTimeChanged"})
	assert.True(t, done)
}

func TestExpectationString(t *testing.T) {
	assert.Equal(t, "sequence[onPlay, bag[onMuted, onSeeked]]",
		Sequence(Plain("onPlay"), Bag(Plain("onMuted"), Plain("onSeeked"))).String())
}

func TestSources(t *testing.T) {
	names := SourceNames()
	assert.Contains(t, names, "artOfMotionDash")

	src, err := Source("widevineProtected")
	require.NoError(t, err)
	require.NotNil(t, src.DRM)
	require.NotNil(t, src.DRM.Widevine)
	assert.Equal(t, "https://cwip-shaka-proxy.appspot.com/no_auth", src.DRM.Widevine.LicenseURL)
	assert.Nil(t, src.DRM.Fairplay)
	assert.Equal(t, "dash", src.Type)

	_, err = Source("nope")
	assert.Error(t, err)
}
