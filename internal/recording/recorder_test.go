package recording

import (
	"math"
	"testing"

	"github.com/cgcardona/Stori-sub007/internal/logger"
)

const epsilon = 1e-9

func beatsEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestRoundTrip_NoQuantization(t *testing.T) {
	r := New(logger.NewNop())
	r.Start(0, false)

	r.NoteOn(60, 100, 0, 0.1)
	r.NoteOff(60, 0.9)

	region, ok := r.Stop(2)
	if !ok {
		t.Fatal("no region produced")
	}
	if len(region.Notes) != 1 {
		t.Fatalf("captured %d notes, want 1", len(region.Notes))
	}
	n := region.Notes[0]
	if n.Pitch != 60 || n.Velocity != 100 {
		t.Errorf("note = %+v", n)
	}
	if !beatsEqual(n.StartBeat, 0.1) || !beatsEqual(n.DurationBeats, 0.8) {
		t.Errorf("start=%v duration=%v, want raw elapsed beats", n.StartBeat, n.DurationBeats)
	}
}

func TestQuantize_QuarterGrid(t *testing.T) {
	r := New(logger.NewNop())
	r.SetGrid(0.25)
	r.Start(0, false)

	r.NoteOn(64, 90, 0, 0.26)
	r.NoteOff(64, 0.76)

	region, ok := r.Stop(4)
	if !ok {
		t.Fatal("no region produced")
	}
	n := region.Notes[0]
	if n.Pitch != 64 || !beatsEqual(n.StartBeat, 0.25) || !beatsEqual(n.DurationBeats, 0.50) {
		t.Fatalf("note = %+v, want start 0.25 duration 0.50", n)
	}
}

func TestDurationFloor(t *testing.T) {
	r := New(logger.NewNop())
	r.SetGrid(0.25)
	r.Start(0, false)

	// Both edges quantize to the same grid line.
	r.NoteOn(60, 100, 0, 0.24)
	r.NoteOff(60, 0.26)

	region, ok := r.Stop(1)
	if !ok {
		t.Fatal("no region produced")
	}
	if d := region.Notes[0].DurationBeats; d < MinNoteBeats {
		t.Fatalf("duration %v below floor", d)
	}
}

func TestEveryCommittedNoteHasPositiveDuration(t *testing.T) {
	r := New(logger.NewNop())
	r.SetGrid(0.5)
	r.Start(10, false)

	for pitch := uint8(60); pitch < 70; pitch++ {
		r.NoteOn(pitch, 80, 0, 10.0+float64(pitch-60)*0.13)
		r.NoteOff(pitch, 10.0+float64(pitch-60)*0.13+0.05)
	}
	region, ok := r.Stop(14)
	if !ok {
		t.Fatal("no region produced")
	}
	for _, n := range region.Notes {
		if n.DurationBeats <= 0 {
			t.Fatalf("note %+v has non-positive duration", n)
		}
	}
}

func TestDuplicateNoteOn_FirstEntryAuthoritative(t *testing.T) {
	r := New(logger.NewNop())
	r.Start(0, false)

	r.NoteOn(60, 100, 0, 0.1)
	r.NoteOn(60, 50, 0, 0.5) // ignored while the first is pending
	r.NoteOff(60, 1.0)

	region, ok := r.Stop(2)
	if !ok {
		t.Fatal("no region produced")
	}
	if len(region.Notes) != 1 {
		t.Fatalf("captured %d notes, want 1", len(region.Notes))
	}
	n := region.Notes[0]
	if n.Velocity != 100 || !beatsEqual(n.StartBeat, 0.1) || !beatsEqual(n.DurationBeats, 0.9) {
		t.Fatalf("note = %+v, want the first NoteOn's timing and velocity", n)
	}
}

func TestUnmatchedNoteOffIgnored(t *testing.T) {
	r := New(logger.NewNop())
	r.Start(0, false)
	r.NoteOff(60, 0.5)
	if _, ok := r.Stop(1); ok {
		t.Fatal("unmatched NoteOff produced a region")
	}
}

func TestStop_ForceClosesPendingNotes(t *testing.T) {
	r := New(logger.NewNop())
	r.Start(0, false)

	r.NoteOn(60, 100, 0, 0.5)
	// Key held through stop.
	region, ok := r.Stop(2.0)
	if !ok {
		t.Fatal("no region produced")
	}
	n := region.Notes[0]
	if !beatsEqual(n.StartBeat, 0.5) || !beatsEqual(n.DurationBeats, 1.5) {
		t.Fatalf("force-closed note = %+v, want end at the stop beat", n)
	}
}

func TestStop_ZeroNotesYieldsNoRegion(t *testing.T) {
	r := New(logger.NewNop())
	r.Start(0, false)
	r.ControlChange(1, 64, 0, 0.5) // controller data alone is not a region
	if region, ok := r.Stop(1); ok {
		t.Fatalf("expected no region, got %+v", region)
	}
}

func TestContinuousDataUnquantized(t *testing.T) {
	r := New(logger.NewNop())
	r.SetGrid(0.25)
	r.Start(0, false)

	r.NoteOn(60, 100, 0, 0.26)
	r.ControlChange(1, 80, 0, 0.37)
	r.PitchBend(2048, 0, 0.41)
	r.NoteOff(60, 0.76)

	region, ok := r.Stop(1)
	if !ok {
		t.Fatal("no region produced")
	}
	if len(region.Controls) != 1 || !beatsEqual(region.Controls[0].Beat, 0.37) {
		t.Errorf("controls = %+v, want raw beat 0.37", region.Controls)
	}
	if len(region.Bends) != 1 || !beatsEqual(region.Bends[0].Beat, 0.41) {
		t.Errorf("bends = %+v, want raw beat 0.41", region.Bends)
	}
}

func TestRegionDurationIsMaxNoteEnd(t *testing.T) {
	r := New(logger.NewNop())
	r.Start(4, false)

	r.NoteOn(60, 100, 0, 4.0)
	r.NoteOff(60, 7.0)
	r.NoteOn(64, 100, 0, 4.5)
	r.NoteOff(64, 5.0)

	region, ok := r.Stop(8)
	if !ok {
		t.Fatal("no region produced")
	}
	if region.StartBeat != 4 || !beatsEqual(region.DurationBeats, 3.0) {
		t.Fatalf("region start=%v duration=%v, want 4 and 3", region.StartBeat, region.DurationBeats)
	}
}

func TestCancel_DiscardsEverything(t *testing.T) {
	r := New(logger.NewNop())
	r.Start(0, false)
	r.NoteOn(60, 100, 0, 0.1)
	r.NoteOff(60, 0.5)
	r.Cancel()

	if r.Recording() {
		t.Fatal("still recording after cancel")
	}
	r.Start(0, false)
	if region, ok := r.Stop(1); ok {
		t.Fatalf("cancelled buffers leaked into next take: %+v", region)
	}
}

func TestStart_OverdubContinues(t *testing.T) {
	r := New(logger.NewNop())
	r.Start(0, false)
	r.NoteOn(60, 100, 0, 0.1)
	r.NoteOff(60, 0.5)

	r.Start(2, true) // already recording: overdub continues the take
	r.NoteOn(64, 90, 0, 2.1)
	r.NoteOff(64, 2.5)

	region, ok := r.Stop(3)
	if !ok {
		t.Fatal("no region produced")
	}
	if len(region.Notes) != 2 {
		t.Fatalf("captured %d notes, want both takes", len(region.Notes))
	}
	if region.StartBeat != 0 {
		t.Fatalf("overdub moved the zero reference to %v", region.StartBeat)
	}
}

func TestStart_RestartClearsBuffers(t *testing.T) {
	r := New(logger.NewNop())
	r.Start(0, false)
	r.NoteOn(60, 100, 0, 0.1)
	r.NoteOff(60, 0.5)

	r.Start(4, false) // restart without overdub
	r.NoteOn(72, 90, 0, 4.1)
	r.NoteOff(72, 4.6)

	region, ok := r.Stop(5)
	if !ok {
		t.Fatal("no region produced")
	}
	if len(region.Notes) != 1 || region.Notes[0].Pitch != 72 {
		t.Fatalf("notes = %+v, want only the second take", region.Notes)
	}
}
