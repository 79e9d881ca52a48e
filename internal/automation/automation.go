// Package automation captures continuous parameter moves into automation
// lanes. Capture is throttled in real time, thinned once at commit, and
// merged into the existing lane according to the recording mode. All
// methods run on the engine's state-owner goroutine.
package automation

import (
	"sort"
	"time"

	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// DefaultInterval is the wall-clock throttle between captured points for
// one (track, parameter) key when no option overrides it.
const DefaultInterval = 50 * time.Millisecond

// thinThreshold is the minimum value delta (of the normalized range) an
// interior point must contribute to survive thinning.
const thinThreshold = 0.005

// touchReturnGap is how far after the last captured point the Touch-mode
// baseline return point lands.
const touchReturnGap = 0.01

// capture is one in-flight recording for a (track, parameter) key.
type capture struct {
	mode      contracts.AutomationMode
	curve     contracts.CurveType
	startBeat float64
	baseline  float64
	points    []contracts.AutomationPoint
	lastBeat  float64
}

// Capture owns every in-flight automation recording.
type Capture struct {
	log     contracts.Logger
	clock   contracts.BeatClock
	project contracts.ProjectSink

	interval time.Duration
	active   map[contracts.ParamKey]*capture
}

// New creates the capture component. project may be nil, in which case
// committed lanes have nowhere to merge into and End only discards.
func New(clock contracts.BeatClock, project contracts.ProjectSink, interval time.Duration, log contracts.Logger) *Capture {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Capture{
		log:      log,
		clock:    clock,
		project:  project,
		interval: interval,
		active:   make(map[contracts.ParamKey]*capture),
	}
}

// Begin opens a recording for the key. Off and Read modes have no
// recording effect. baseline is the parameter's pre-touch value, used by
// Touch mode to return after the recording stops.
func (c *Capture) Begin(track contracts.TrackID, param string, mode contracts.AutomationMode, baseline float64, curve contracts.CurveType) {
	if mode == contracts.AutomationOff || mode == contracts.AutomationRead {
		return
	}
	key := contracts.ParamKey{Track: track, Param: param}
	c.active[key] = &capture{
		mode:      mode,
		curve:     curve,
		startBeat: c.clock.CurrentBeat(),
		baseline:  clamp01(baseline),
	}
	c.log.Debug("automation capture started",
		c.log.Field().String("track", string(track)),
		c.log.Field().String("param", param),
		c.log.Field().String("mode", mode.String()))
}

// Recording reports whether the key has an in-flight capture.
func (c *Capture) Recording(track contracts.TrackID, param string) bool {
	_, ok := c.active[contracts.ParamKey{Track: track, Param: param}]
	return ok
}

// CaptureValue appends a point for the key, throttled so point density
// stays roughly constant in real time regardless of tempo: a point is
// kept only when the elapsed musical time since the key's last point
// exceeds the configured wall-clock interval converted to beats.
func (c *Capture) CaptureValue(track contracts.TrackID, param string, value float64) {
	rec, ok := c.active[contracts.ParamKey{Track: track, Param: param}]
	if !ok {
		return
	}
	beat := c.clock.CurrentBeat()
	minGap := c.interval.Seconds() * c.clock.Tempo() / 60
	if len(rec.points) > 0 && beat-rec.lastBeat < minGap {
		return
	}
	rec.points = append(rec.points, contracts.AutomationPoint{
		Beat:  beat,
		Value: clamp01(value),
		Curve: rec.curve,
	})
	rec.lastBeat = beat
}

// End commits the key's capture: the captured points are thinned, Touch
// mode appends its baseline return point, and the result is merged into
// the existing lane per the recording mode. The merged lane is handed to
// the project sink.
func (c *Capture) End(track contracts.TrackID, param string) {
	key := contracts.ParamKey{Track: track, Param: param}
	rec, ok := c.active[key]
	if !ok {
		return
	}
	delete(c.active, key)

	endBeat := c.clock.CurrentBeat()
	points := Thin(rec.points, thinThreshold)

	if rec.mode == contracts.AutomationTouch {
		returnBeat := endBeat
		if n := len(points); n > 0 {
			returnBeat = points[n-1].Beat + touchReturnGap
		}
		points = append(points, contracts.AutomationPoint{
			Beat:  returnBeat,
			Value: rec.baseline,
			Curve: rec.curve,
		})
		if returnBeat > endBeat {
			endBeat = returnBeat
		}
	}

	if c.project == nil || len(points) == 0 {
		return
	}
	existing := c.project.AutomationLane(track, param)
	merged := Merge(existing, points, rec.mode, rec.startBeat, endBeat)
	c.project.ReplaceAutomationLane(track, param, merged)
	c.log.Info("automation lane committed",
		c.log.Field().String("track", string(track)),
		c.log.Field().String("param", param),
		c.log.Field().Int("points", len(points)))
}

// Cancel discards the in-flight capture for one key without committing.
func (c *Capture) Cancel(track contracts.TrackID, param string) {
	delete(c.active, contracts.ParamKey{Track: track, Param: param})
}

// CancelAll discards every in-flight capture.
func (c *Capture) CancelAll() {
	clear(c.active)
}

// Thin reduces a dense point sequence while preserving its perceptual
// shape. The first and last point always survive; an interior point
// survives when its value differs from the last kept value by more than
// threshold, or when it is a genuine local direction reversal relative
// to its immediate neighbors and not part of a flat run. Sequences of
// two points or fewer are returned unchanged.
//
// This is a single-pass simplification, an intentional approximation; it
// does not guarantee a minimal point count the way a recursive
// error-bound algorithm would.
func Thin(points []contracts.AutomationPoint, threshold float64) []contracts.AutomationPoint {
	if len(points) <= 2 {
		return points
	}
	out := make([]contracts.AutomationPoint, 0, len(points))
	out = append(out, points[0])
	lastKept := points[0].Value

	for i := 1; i < len(points)-1; i++ {
		v := points[i].Value
		prev := points[i-1].Value
		next := points[i+1].Value

		keep := absDiff(v, lastKept) > threshold
		if !keep && isReversal(prev, v, next) {
			keep = true
		}
		if keep {
			out = append(out, points[i])
			lastKept = v
		}
	}
	return append(out, points[len(points)-1])
}

// isReversal reports whether v is a strict local extremum. Flat runs are
// not reversals.
func isReversal(prev, v, next float64) bool {
	return (v > prev && v > next) || (v < prev && v < next)
}

// Merge combines captured points into the existing lane. Touch and Latch
// replace only the window [recordStart, recordEnd]; Write replaces every
// existing point at or after recordStart. The result is re-sorted so the
// lane stays beat-ascending.
func Merge(existing, captured []contracts.AutomationPoint, mode contracts.AutomationMode, recordStart, recordEnd float64) []contracts.AutomationPoint {
	merged := make([]contracts.AutomationPoint, 0, len(existing)+len(captured))
	for _, p := range existing {
		switch mode {
		case contracts.AutomationWrite:
			if p.Beat >= recordStart {
				continue
			}
		default:
			if p.Beat >= recordStart && p.Beat <= recordEnd {
				continue
			}
		}
		merged = append(merged, p)
	}
	merged = append(merged, captured...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Beat < merged[j].Beat
	})
	return merged
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
