package tone

import (
	"context"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/obs"
)

// DefaultSampleRate is used when the output does not say otherwise.
const DefaultSampleRate = 44100

const (
	retriggerWindow = 3 * time.Second
	releaseDelay    = 1500 * time.Millisecond
)

// Output plays PCM samples and blocks until playback ends.
type Output interface {
	SampleRate() int
	Play(ctx context.Context, samples []float32) error
}

// Synth plays presets through an Output, one at a time.
type Synth struct {
	out Output
	log *zap.Logger

	now       func() time.Time
	afterFunc func(time.Duration, func())
	goFunc    func(func())

	mu        gosync.Mutex
	playing   bool
	lastStart time.Time
}

// NewSynth creates a Synth writing to out.
func NewSynth(out Output, log *zap.Logger) *Synth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synth{
		out: out,
		log: log,
		now: time.Now,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		goFunc: func(f func()) { go f() },
	}
}

// Play starts the named tone at volume in the background and reports
// whether it did. It is a no-op while another tone holds the guard or
// within 3s of the last start. The guard is released 1.5s after playback
// ends, whether it succeeded or not. Errors are only logged.
func (s *Synth) Play(name string, volume float64) bool {
	if s.out == nil {
		return false
	}

	s.mu.Lock()
	now := s.now()
	if s.playing || (!s.lastStart.IsZero() && now.Sub(s.lastStart) < retriggerWindow) {
		s.mu.Unlock()
		obs.Tones.WithLabelValues("skipped").Inc()
		s.log.Debug("tone skipped", zap.String("tone", name))
		return false
	}
	s.playing = true
	s.lastStart = now
	s.mu.Unlock()

	rate := s.out.SampleRate()
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	preset := Lookup(name)
	samples := Render(preset, volume, rate)

	s.goFunc(func() {
		ctx, cancel := context.WithTimeout(context.Background(), preset.Duration()+2*time.Second)
		defer cancel()

		if err := s.out.Play(ctx, samples); err != nil {
			obs.Tones.WithLabelValues("error").Inc()
			s.log.Warn("tone playback failed", zap.String("tone", name), zap.Error(err))
		} else {
			obs.Tones.WithLabelValues("played").Inc()
		}
		s.afterFunc(releaseDelay, s.release)
	})
	return true
}

func (s *Synth) release() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// Busy reports whether the guard is held.
func (s *Synth) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}
