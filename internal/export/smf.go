// Package export renders a composition as a Standard MIDI File.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// TicksPerQuarter is the file resolution
const TicksPerQuarter = 960

// ErrNoTracks is returned for a composition without tracks
var ErrNoTracks = errors.New("composition has no tracks")

type event struct {
	tick uint32
	off  bool
	msg  []byte
}

// WriteSMF writes a format 1 file: a conductor track with meter and tempo
// followed by one track per composition track
func WriteSMF(w io.Writer, state *models.CompositionState) error {
	if state == nil || len(state.Tracks) == 0 {
		return ErrNoTracks
	}

	sm := smf.NewSMF1()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	sig := state.Intent.TimeSignature.OrDefault()
	tempo := float64(state.Intent.Tempo)
	if tempo <= 0 {
		tempo = 120
	}
	ticksPerBeat := beatTicks(sig)
	end := uint32(state.TotalBars*sig.BeatsPerBar()) * ticksPerBeat

	var conductor smf.Track
	conductor.Add(0, smf.MetaTrackSequenceName(state.Intent.NormalizedGenre()))
	conductor.Add(0, smf.MetaMeter(uint8(sig.Numerator), uint8(sig.Denominator)))
	conductor.Add(0, smf.MetaTempo(tempo*4/float64(sig.Denominator)))
	conductor.Close(end)
	if err := sm.Add(conductor); err != nil {
		return fmt.Errorf("error adding conductor track: %w", err)
	}

	for i, t := range state.Tracks {
		if err := sm.Add(buildTrack(t, ticksPerBeat, end)); err != nil {
			return fmt.Errorf("error adding track %d: %w", i, err)
		}
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// beatTicks is the length of one meter beat. Beats and tempo are counted in
// the signature's denominator, so an eighth-note meter has half-length beats
// and the file tempo is converted to quarter notes.
func beatTicks(sig models.TimeSignature) uint32 {
	return uint32(TicksPerQuarter * 4 / sig.Denominator)
}

func buildTrack(t models.Track, ticksPerBeat, end uint32) smf.Track {
	ch := uint8(t.Channel & 0x0f)

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(t.Name))
	if !t.Role.IsPercussion() {
		track.Add(0, midi.ProgramChange(ch, uint8(t.Program&0x7f)))
	}

	events := make([]event, 0, 2*len(t.Notes))
	for _, n := range t.Notes {
		start := toTicks(n.Start, ticksPerBeat)
		stop := max(toTicks(n.End(), ticksPerBeat), start+1)
		key := uint8(min(max(n.Pitch, 0), 127))
		vel := uint8(min(max(n.Velocity, 1), 127))
		events = append(events,
			event{tick: start, msg: midi.NoteOn(ch, key, vel)},
			event{tick: stop, off: true, msg: midi.NoteOff(ch, key)},
		)
	}
	// note-offs first at equal ticks so repeated keys retrigger
	sort.SliceStable(events, func(a, b int) bool {
		if events[a].tick != events[b].tick {
			return events[a].tick < events[b].tick
		}
		return events[a].off && !events[b].off
	})

	var last uint32
	for _, e := range events {
		track.Add(e.tick-last, e.msg)
		last = e.tick
	}
	if end > last {
		track.Close(end - last)
	} else {
		track.Close(0)
	}
	return track
}

func toTicks(beat float64, ticksPerBeat uint32) uint32 {
	return uint32(math.Round(max(beat, 0) * float64(ticksPerBeat)))
}
