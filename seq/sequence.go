// Package seq implements text-based event sequencing on top of a voice
// pool: a line-oriented sequence format, a sample-accurate sequencer that
// plays it, and a recorder that captures live triggering back into it.
//
// The format is one event per line. Timed events carry their duration:
//
//	@ <start> <duration> <voice> <field0> ... <fieldN>
//
// Paired events reference each other through a numeric id:
//
//	+ <time> <id> <voice> <field0> ... <fieldN>
//	- <time> <id>
//
// Times and durations are seconds; fields are the voice type's parameter
// fields in marshaling order. Blank lines and lines starting with # are
// ignored.
package seq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Event is one scheduled voice: trigger at Time, release Duration seconds
// later. A negative Duration means the event was never closed and the voice
// runs out on its own (or sustains until an external release).
type Event struct {
	Voice    string
	Time     float64
	Duration float64
	ID       int
	Fields   []float32
}

// Sequence is an ordered list of events.
type Sequence struct {
	Events []Event
}

// Sort orders events by start time, keeping equal-time events in input
// order.
func (s *Sequence) Sort() {
	sort.SliceStable(s.Events, func(i, j int) bool {
		return s.Events[i].Time < s.Events[j].Time
	})
}

// Duration returns the time at which the last event ends, not counting
// voice release tails.
func (s *Sequence) Duration() float64 {
	var end float64
	for _, e := range s.Events {
		t := e.Time
		if e.Duration > 0 {
			t += e.Duration
		}
		if t > end {
			end = t
		}
	}
	return end
}

// Parse reads a sequence. Malformed lines are skipped, not fatal: the
// returned error joins one error per bad line while the sequence still
// holds every event that parsed. A nil error means a clean file.
func Parse(r io.Reader) (*Sequence, error) {
	seq := &Sequence{}
	open := make(map[int]int) // id -> index into seq.Events
	var errs []error
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := parseLine(seq, open, line); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %v", lineno, err))
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("reading sequence: %w", err))
	}
	seq.Sort()
	return seq, errors.Join(errs...)
}

func parseLine(seq *Sequence, open map[int]int, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "@":
		if len(fields) < 4 {
			return fmt.Errorf("timed event needs start, duration and voice")
		}
		start, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("bad start time %q", fields[1])
		}
		dur, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("bad duration %q", fields[2])
		}
		pf, err := parseFloats(fields[4:])
		if err != nil {
			return err
		}
		seq.Events = append(seq.Events, Event{Voice: fields[3], Time: start, Duration: dur, Fields: pf})
	case "+":
		if len(fields) < 4 {
			return fmt.Errorf("trigger-on needs time, id and voice")
		}
		t, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("bad time %q", fields[1])
		}
		id, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("bad id %q", fields[2])
		}
		pf, err := parseFloats(fields[4:])
		if err != nil {
			return err
		}
		open[id] = len(seq.Events)
		seq.Events = append(seq.Events, Event{Voice: fields[3], Time: t, Duration: -1, ID: id, Fields: pf})
	case "-":
		if len(fields) < 3 {
			return fmt.Errorf("trigger-off needs time and id")
		}
		t, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("bad time %q", fields[1])
		}
		id, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("bad id %q", fields[2])
		}
		idx, ok := open[id]
		if !ok {
			// a stale note-off; mirror the pool and ignore it
			return nil
		}
		delete(open, id)
		if d := t - seq.Events[idx].Time; d >= 0 {
			seq.Events[idx].Duration = d
		}
	default:
		return fmt.Errorf("unknown event kind %q", fields[0])
	}
	return nil
}

func parseFloats(fields []string) ([]float32, error) {
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("bad parameter field %q", f)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// Write serializes a sequence. Events with a known duration become "@"
// lines; open-ended events become unpaired "+" lines.
func Write(w io.Writer, seq *Sequence) error {
	bw := bufio.NewWriter(w)
	for _, e := range seq.Events {
		var err error
		if e.Duration >= 0 {
			_, err = fmt.Fprintf(bw, "@ %v %v %s%s\n", e.Time, e.Duration, e.Voice, formatFloats(e.Fields))
		} else {
			_, err = fmt.Fprintf(bw, "+ %v %d %s%s\n", e.Time, e.ID, e.Voice, formatFloats(e.Fields))
		}
		if err != nil {
			return fmt.Errorf("writing sequence: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing sequence: %w", err)
	}
	return nil
}

func formatFloats(fields []float32) string {
	var sb strings.Builder
	for _, f := range fields {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	return sb.String()
}
