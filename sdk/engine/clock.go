package engine

import "time"

// defaultTempo drives the fallback clock when the host supplies no
// transport position provider.
const defaultTempo = 120.0

// systemClock derives beats from the wall clock at a fixed tempo. It is
// the fallback when no BeatClock option is supplied, good enough for
// standalone capture without a host transport.
type systemClock struct {
	start time.Time
	tempo float64
}

func newSystemClock(tempo float64) *systemClock {
	return &systemClock{start: time.Now(), tempo: tempo}
}

func (c *systemClock) CurrentBeat() float64 {
	return time.Since(c.start).Seconds() * c.tempo / 60
}

func (c *systemClock) Tempo() float64 {
	return c.tempo
}
