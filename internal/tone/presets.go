// Package tone synthesizes the short notification cues.
package tone

import (
	"math"
	"time"

	"github.com/devel-adr/medistream/internal/model"
)

// Note is one sine tone followed by an optional silence.
type Note struct {
	Freq     float64
	Duration time.Duration
	Gap      time.Duration
}

// Preset is a sequence of notes played back to back.
type Preset []Note

var presets = map[string]Preset{
	model.ToneDing: {
		{Freq: 800, Duration: 500 * time.Millisecond},
	},
	model.ToneNotification: {
		{Freq: 440, Duration: 100 * time.Millisecond, Gap: 100 * time.Millisecond},
		{Freq: 440, Duration: 100 * time.Millisecond},
	},
	model.ToneChime: {
		{Freq: 523.25, Duration: 200 * time.Millisecond, Gap: 50 * time.Millisecond},
		{Freq: 659.25, Duration: 200 * time.Millisecond, Gap: 50 * time.Millisecond},
		{Freq: 783.99, Duration: 300 * time.Millisecond},
	},
}

// fallback is played for unknown names, including "beep".
var fallback = Preset{{Freq: 600, Duration: 300 * time.Millisecond}}

// Names lists the selectable tones.
func Names() []string {
	return []string{model.ToneNotification, model.ToneDing, model.ToneChime, model.ToneBeep}
}

// Lookup returns the preset for name, or the single 600 Hz beep.
func Lookup(name string) Preset {
	if p, ok := presets[name]; ok {
		return p
	}
	return fallback
}

// Duration is the total playing time including gaps.
func (p Preset) Duration() time.Duration {
	var d time.Duration
	for _, n := range p {
		d += n.Duration + n.Gap
	}
	return d
}

const (
	attack   = 10 * time.Millisecond
	decayEnd = 0.001
)

// Render produces mono PCM samples in [-1, 1] for p at the given volume.
// Each note ramps up linearly over 10ms, then decays exponentially to
// 0.001 of its peak at the note's end.
func Render(p Preset, volume float64, sampleRate int) []float32 {
	volume = math.Max(0, math.Min(1, volume))
	out := make([]float32, 0, samplesFor(p.Duration(), sampleRate))

	for _, n := range p {
		total := samplesFor(n.Duration, sampleRate)
		attackN := samplesFor(attack, sampleRate)
		if attackN > total {
			attackN = total
		}
		decayN := total - attackN

		for i := 0; i < total; i++ {
			var gain float64
			if i < attackN {
				gain = volume * float64(i) / float64(attackN)
			} else {
				frac := 1.0
				if decayN > 1 {
					frac = float64(i-attackN) / float64(decayN-1)
				}
				gain = volume * math.Pow(decayEnd, frac)
			}
			t := float64(i) / float64(sampleRate)
			out = append(out, float32(gain*math.Sin(2*math.Pi*n.Freq*t)))
		}

		for i := samplesFor(n.Gap, sampleRate); i > 0; i-- {
			out = append(out, 0)
		}
	}
	return out
}

func samplesFor(d time.Duration, sampleRate int) int {
	return int(d.Seconds() * float64(sampleRate))
}
