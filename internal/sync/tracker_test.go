package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGrowthTracker_FirstObservationOnlyInitializes(t *testing.T) {
	g := growthTracker{cooldown: DefaultCooldown}

	dec, delta := g.observe(12, time.Unix(0, 0))

	assert.Equal(t, decisionInit, dec)
	assert.Zero(t, delta)
	assert.Equal(t, 12, g.previousCount)
}

func TestGrowthTracker_DecreaseIsSilent(t *testing.T) {
	g := growthTracker{cooldown: DefaultCooldown}
	t0 := time.Unix(0, 0)

	g.observe(10, t0)
	dec, _ := g.observe(7, t0.Add(time.Minute))

	assert.Equal(t, decisionNone, dec)
	assert.Equal(t, 7, g.previousCount)

	dec, delta := g.observe(9, t0.Add(2*time.Minute))
	assert.Equal(t, decisionEmit, dec)
	assert.Equal(t, 2, delta)
}

func TestGrowthTracker_EmptyPreviousNeverEmits(t *testing.T) {
	g := growthTracker{cooldown: DefaultCooldown}
	t0 := time.Unix(0, 0)

	g.observe(0, t0)
	dec, _ := g.observe(4, t0.Add(time.Minute))

	assert.Equal(t, decisionNone, dec)
	assert.Equal(t, 4, g.previousCount)
}

func TestGrowthTracker_CountsStrictIncreasesOutsideCooldown(t *testing.T) {
	g := growthTracker{cooldown: 5 * time.Second}
	t0 := time.Unix(0, 0)

	// Ticks every 2s; the cooldown swallows every other increase.
	counts := []int{3, 4, 4, 5, 6, 7, 7, 8}
	emitted := 0
	for i, c := range counts {
		if dec, _ := g.observe(c, t0.Add(time.Duration(i)*2*time.Second)); dec == decisionEmit {
			emitted++
		}
	}

	// Increases at t=2,6,8,10,14; emissions at t=2,8,14.
	assert.Equal(t, 3, emitted)
}
