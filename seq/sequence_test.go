package seq_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AlloSphere-Research-Group/polysynth/seq"
)

const testSequence = `# a small test take
@ 0 0.5 sine 0 0 1 440 0.01 0.1

@ 0.25 0.5 sine 0.5 0 1 550 0.01 0.1
+ 1 1 pad -0.5 0 1 220 0.05 0.3
- 1.5 1
+ 2 2 pad 0 0 1 330 0.05 0.3
`

func TestParseSequence(t *testing.T) {
	s, err := seq.Parse(strings.NewReader(testSequence))
	if err != nil {
		t.Fatalf("parsing a clean sequence failed: %v", err)
	}
	if len(s.Events) != 4 {
		t.Fatalf("parsed %d events, want 4", len(s.Events))
	}
	for i := 1; i < len(s.Events); i++ {
		if s.Events[i].Time < s.Events[i-1].Time {
			t.Fatalf("events not sorted: %v after %v", s.Events[i].Time, s.Events[i-1].Time)
		}
	}
	paired := s.Events[2]
	if paired.Voice != "pad" || paired.Time != 1 || paired.Duration != 0.5 {
		t.Errorf("paired event = %+v, want pad at 1 for 0.5", paired)
	}
	open := s.Events[3]
	if open.Duration >= 0 {
		t.Errorf("unclosed event has duration %v, want negative", open.Duration)
	}
	if got := s.Events[0].Fields; len(got) != 6 || got[3] != 440 {
		t.Errorf("event fields = %v, want 6 fields with frequency 440", got)
	}
	if d := s.Duration(); d != 2 {
		t.Errorf("sequence duration = %v, want 2", d)
	}
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := `@ 0 0.5 sine 440
@ bad 0.5 sine 440
% 1 2 3
@ 1 0.5 sine 550
+ 2
`
	s, err := seq.Parse(strings.NewReader(input))
	if err == nil {
		t.Fatal("malformed lines produced no error")
	}
	if len(s.Events) != 2 {
		t.Fatalf("parsed %d events from the good lines, want 2", len(s.Events))
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error does not name the bad line: %v", err)
	}
}

func TestParseStaleTriggerOffIsIgnored(t *testing.T) {
	input := `@ 0 0.5 sine 440
- 1 99
`
	s, err := seq.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("stale trigger-off reported an error: %v", err)
	}
	if len(s.Events) != 1 {
		t.Fatalf("parsed %d events, want 1", len(s.Events))
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	orig, err := seq.Parse(strings.NewReader(testSequence))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := seq.Write(&buf, orig); err != nil {
		t.Fatalf("writing sequence: %v", err)
	}
	back, err := seq.Parse(&buf)
	if err != nil {
		t.Fatalf("re-parsing written sequence: %v", err)
	}
	if len(back.Events) != len(orig.Events) {
		t.Fatalf("round trip changed event count from %d to %d", len(orig.Events), len(back.Events))
	}
	for i := range orig.Events {
		a, b := orig.Events[i], back.Events[i]
		if a.Voice != b.Voice || a.Time != b.Time {
			t.Errorf("event %d changed: %+v -> %+v", i, a, b)
		}
		if (a.Duration < 0) != (b.Duration < 0) {
			t.Errorf("event %d openness changed: %v -> %v", i, a.Duration, b.Duration)
		}
		if a.Duration >= 0 && a.Duration != b.Duration {
			t.Errorf("event %d duration changed: %v -> %v", i, a.Duration, b.Duration)
		}
		if len(a.Fields) != len(b.Fields) {
			t.Errorf("event %d field count changed: %d -> %d", i, len(a.Fields), len(b.Fields))
			continue
		}
		for j := range a.Fields {
			if a.Fields[j] != b.Fields[j] {
				t.Errorf("event %d field %d changed: %v -> %v", i, j, a.Fields[j], b.Fields[j])
			}
		}
	}
}
