// Package otoplayer plays PCM through the sound card with ebitengine/oto.
package otoplayer

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/devel-adr/medistream/internal/tone"
)

// Player is a tone.Output. oto allows one context per process, so create
// a single Player and share it.
type Player struct {
	ctx        *oto.Context
	sampleRate int
}

var _ tone.Output = (*Player)(nil)

// New opens the audio device at sampleRate, or tone.DefaultSampleRate.
func New(sampleRate int) (*Player, error) {
	if sampleRate <= 0 {
		sampleRate = tone.DefaultSampleRate
	}
	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready
	return &Player{ctx: c, sampleRate: sampleRate}, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }

// Play blocks until the samples have been played or ctx ends.
func (p *Player) Play(ctx context.Context, samples []float32) error {
	pl := p.ctx.NewPlayer(bytes.NewReader(encode(samples)))
	defer pl.Close()

	pl.Play()
	for pl.IsPlaying() {
		select {
		case <-ctx.Done():
			pl.Pause()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

func encode(samples []float32) []byte {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(s))
	}
	return buf
}
