package tone

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-adr/medistream/internal/model"
)

type fakeOutput struct {
	plays int
	err   error
}

func (f *fakeOutput) SampleRate() int { return 8000 }

func (f *fakeOutput) Play(context.Context, []float32) error {
	f.plays++
	return f.err
}

type synthHarness struct {
	now      time.Time
	releases []func()
}

func newTestSynth(out Output) (*Synth, *synthHarness) {
	h := &synthHarness{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := NewSynth(out, nil)
	s.now = func() time.Time { return h.now }
	s.afterFunc = func(_ time.Duration, f func()) { h.releases = append(h.releases, f) }
	s.goFunc = func(f func()) { f() }
	return s, h
}

func (h *synthHarness) release() {
	for _, f := range h.releases {
		f()
	}
	h.releases = nil
}

func TestSynth_SecondPlayWithinWindowIsNoop(t *testing.T) {
	out := &fakeOutput{}
	s, _ := newTestSynth(out)

	assert.True(t, s.Play(model.ToneDing, 0.5))
	assert.False(t, s.Play(model.ToneDing, 0.5))
	assert.Equal(t, 1, out.plays)
}

func TestSynth_GuardReleasedAfterDelay(t *testing.T) {
	out := &fakeOutput{}
	s, h := newTestSynth(out)

	require.True(t, s.Play(model.ToneChime, 0.5))
	assert.True(t, s.Busy())
	require.Len(t, h.releases, 1)

	h.release()
	assert.False(t, s.Busy())

	h.now = h.now.Add(2 * time.Second)
	assert.False(t, s.Play(model.ToneChime, 0.5), "still inside the retrigger window")

	h.now = h.now.Add(1500 * time.Millisecond)
	assert.True(t, s.Play(model.ToneChime, 0.5))
	assert.Equal(t, 2, out.plays)
}

func TestSynth_ErrorStillReleasesGuard(t *testing.T) {
	out := &fakeOutput{err: errors.New("device busy")}
	s, h := newTestSynth(out)

	assert.True(t, s.Play(model.ToneDing, 0.5))
	require.Len(t, h.releases, 1)
	h.release()
	assert.False(t, s.Busy())
}

func TestSynth_NoOutput(t *testing.T) {
	s := NewSynth(nil, nil)
	assert.False(t, s.Play(model.ToneDing, 0.5))
}
