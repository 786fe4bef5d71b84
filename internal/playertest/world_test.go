package playertest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

func newWorld(t *testing.T, timeout time.Duration) *World {
	t.Helper()
	w, err := New(context.Background(), Options{Timeout: timeout})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, w.Close(ctx))
	})
	return w
}

func TestWorld_SinglePlayer(t *testing.T) {
	w := newWorld(t, 0)
	ctx := context.Background()

	require.NoError(t, w.StartPlayerTest(ctx, PlayerConfig{}))
	assert.Equal(t, StateInitialized, w.State(SlotA))
	require.NoError(t, w.LoadSource(ctx, SlotA, "artOfMotionDash"))

	e, err := w.PlayFor(ctx, SlotA, 1)
	require.NoError(t, err)
	ct, ok := e.Float("currentTime")
	require.True(t, ok)
	assert.GreaterOrEqual(t, ct, 1.0)

	_, err = w.CallPlayerAndExpectEvent(ctx, SlotA, Plain("onMuted"), "mute")
	require.NoError(t, err)
	muted, err := w.CallPlayer(ctx, SlotA, "isMuted")
	require.NoError(t, err)
	assert.Equal(t, true, muted)

	events, err := w.CallPlayerAndExpectEvents(ctx, SlotA,
		Sequence(Plain("onSeek"), Plain("onSeeked")), "seek", 5)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, map[string]any{"time": 5.0}, toFloatMap(events[0].Data["to"]))

	e, err = w.PlayUntil(ctx, SlotA, 6)
	require.NoError(t, err)
	ct, _ = e.Float("currentTime")
	assert.GreaterOrEqual(t, ct, 6.0)

	// let a tick already in flight when pause ran drain
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.ExpectNoEvent(ctx, SlotA, Plain("onTimeChanged"), 100*time.Millisecond))

	require.NoError(t, w.Destroy(ctx, SlotA))
	assert.Equal(t, StateDestroyed, w.State(SlotA))
	_, err = w.CallPlayer(ctx, SlotA, "play")
	assert.ErrorIs(t, err, ErrSlotState)
}

func TestWorld_LoadSourceError(t *testing.T) {
	w := newWorld(t, 0)
	ctx := context.Background()
	require.NoError(t, w.StartPlayerTest(ctx, PlayerConfig{}))

	err := w.LoadSource(ctx, SlotA, "missingManifest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestWorld_MultiPlayerIsolation(t *testing.T) {
	w := newWorld(t, 0)
	ctx := context.Background()

	require.NoError(t, w.StartMultiPlayerTest(ctx, PlayerConfig{}, PlayerConfig{Playback: playback(true)}))
	require.NoError(t, w.LoadSource(ctx, SlotA, "artOfMotionHls"))
	require.NoError(t, w.LoadSource(ctx, SlotB, "sintelProgressive"))

	quiet := make(chan error, 1)
	go func() { quiet <- w.ExpectNoEvent(ctx, SlotB, Plain("onPlaying"), 200*time.Millisecond) }()
	time.Sleep(10 * time.Millisecond)
	_, err := w.CallPlayerAndExpectEvent(ctx, SlotA, Plain("onPlaying"), "play")
	require.NoError(t, err)
	require.NoError(t, <-quiet, "slot B must not see slot A's events")

	viewA, _ := w.ViewID(SlotA)
	viewB, _ := w.ViewID(SlotB)
	require.NoError(t, w.SwapViews(ctx))
	swappedA, _ := w.ViewID(SlotA)
	assert.Equal(t, viewB, swappedA)

	e, err := w.CallPlayerAndExpectEvent(ctx, SlotB, Plain("onPlaying"), "play")
	require.NoError(t, err)
	assert.Equal(t, viewA, e.ViewID, "slot B now renders in A's former view")
	idB, _ := w.PlayerID(SlotB)
	assert.Equal(t, idB, e.NativeID)

	for _, ev := range w.Events(SlotA) {
		assert.NotEqual(t, idB, ev.NativeID)
	}
}

func TestWorld_ExpectationTimeout(t *testing.T) {
	w := newWorld(t, 100*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, w.StartPlayerTest(ctx, PlayerConfig{}))

	_, err := w.ExpectEvents(ctx, SlotA, Sequence(Plain("onPlay"), Plain("onPaused")))
	require.ErrorIs(t, err, ErrExpectationTimeout)
	assert.Contains(t, err.Error(), "0 of 2")
}

func TestWorld_ExpectNoEventFailsFast(t *testing.T) {
	w := newWorld(t, 0)
	ctx := context.Background()
	require.NoError(t, w.StartPlayerTest(ctx, PlayerConfig{}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = w.CallPlayer(ctx, SlotA, "mute")
	}()
	start := time.Now()
	err := w.ExpectNoEvent(ctx, SlotA, Plain("onMuted"), 5*time.Second)
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWorld_SlotState(t *testing.T) {
	w := newWorld(t, 0)
	ctx := context.Background()

	_, err := w.CallPlayer(ctx, SlotA, "play")
	assert.ErrorIs(t, err, ErrSlotState)
	assert.Equal(t, StateUninitialized, w.State(SlotA))

	require.NoError(t, w.StartPlayerTest(ctx, PlayerConfig{}))
	assert.ErrorIs(t, w.StartPlayerTest(ctx, PlayerConfig{}), ErrSlotState)
	assert.ErrorIs(t, w.SwapViews(ctx), ErrSlotState)

	_, err = w.CallPlayer(ctx, SlotA, "noSuchMethod")
	assert.Error(t, err)
}

func TestWorld_FailedStartCanBeRetried(t *testing.T) {
	w := newWorld(t, time.Second)
	ctx := context.Background()

	// Native player creation fails once.
	_, err := w.host.Evaluate(ctx, "fail.js", `
		var P = require('bitmovin:PlayerModule');
		var initialize = P.initializeWithConfig;
		P.initializeWithConfig = function () {
			P.initializeWithConfig = initialize;
			return Promise.reject(new Error('player creation failed'));
		};
	`)
	require.NoError(t, err)

	err = w.StartPlayerTest(ctx, PlayerConfig{})
	require.ErrorContains(t, err, "player creation failed")
	assert.Equal(t, StateUninitialized, w.State(SlotA))
	_, err = w.PlayerID(SlotA)
	assert.Error(t, err)

	require.NoError(t, w.StartPlayerTest(ctx, PlayerConfig{}))
	assert.Equal(t, StateInitialized, w.State(SlotA))
	muted, err := w.CallPlayer(ctx, SlotA, "isMuted")
	require.NoError(t, err)
	assert.Equal(t, false, muted)
}

func playback(muted bool) sdk.PlaybackConfig { return sdk.PlaybackConfig{IsMuted: muted} }

func toFloatMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	out := make(map[string]any, len(m))
	for k, x := range m {
		if f, ok := toFloat(x); ok {
			out[k] = f
			continue
		}
		out[k] = x
	}
	return out
}
