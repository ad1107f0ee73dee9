package chatlog

import (
	"fmt"
	"strings"
	"testing"
)

func TestSegment_WrappedLines(t *testing.T) {
	content := strings.Join([]string{
		"1/1/23, 9:00 AM - Alice: Hello there",
		"How are you?",
		"1/1/23, 9:01 AM - Bob: Good, thanks!",
	}, "\n")

	got := Segment(content)
	if len(got) != 2 {
		t.Fatalf("expected 2 raw messages, got %d: %q", len(got), got)
	}
	if got[0] != "1/1/23, 9:00 AM - Alice: Hello there How are you?" {
		t.Errorf("raw[0] = %q", got[0])
	}
	if got[1] != "1/1/23, 9:01 AM - Bob: Good, thanks!" {
		t.Errorf("raw[1] = %q", got[1])
	}
}

func TestSegment_OneMessagePerTimestampLine(t *testing.T) {
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("  3/14/24, 10:%02d PM - User%d: message %d  ", i, i%3, i))
	}

	got := Segment(strings.Join(lines, "\n"))
	if len(got) != len(lines) {
		t.Fatalf("expected %d raw messages, got %d", len(lines), len(got))
	}
	for i, line := range lines {
		if got[i] != strings.TrimSpace(line) {
			t.Errorf("raw[%d] = %q, want %q", i, got[i], strings.TrimSpace(line))
		}
	}
}

func TestSegment_ManyContinuations(t *testing.T) {
	content := "[2/3/24, 8:15:00 AM] Dana: first\nsecond\n  third  \nfourth"

	got := Segment(content)
	if len(got) != 1 {
		t.Fatalf("expected 1 raw message, got %d", len(got))
	}
	want := "[2/3/24, 8:15:00 AM] Dana: first second third fourth"
	if got[0] != want {
		t.Errorf("raw[0] = %q, want %q", got[0], want)
	}
}

func TestSegment_StripsExportControlCharacters(t *testing.T) {
	content := "1/1/23, 9:00\u202fAM - \u200eAlice: hi\u200e"

	got := Segment(content)
	if len(got) != 1 {
		t.Fatalf("expected 1 raw message, got %d", len(got))
	}
	if got[0] != "1/1/23, 9:00 AM - Alice: hi" {
		t.Errorf("raw[0] = %q", got[0])
	}
	if strings.ContainsRune(got[0], '\u200e') || strings.ContainsRune(got[0], '\u202f') {
		t.Errorf("control characters survived: %q", got[0])
	}
}

func TestSegment_LineEndings(t *testing.T) {
	content := "1/1/23, 9:00 AM - Alice: one\r\ncontinued\r1/1/23, 9:01 AM - Bob: two\r\n"

	got := Segment(content)
	if len(got) != 2 {
		t.Fatalf("expected 2 raw messages, got %d: %q", len(got), got)
	}
	if got[0] != "1/1/23, 9:00 AM - Alice: one continued" {
		t.Errorf("raw[0] = %q", got[0])
	}
	if got[1] != "1/1/23, 9:01 AM - Bob: two" {
		t.Errorf("raw[1] = %q", got[1])
	}
}

func TestSegment_UnicodeLineSeparators(t *testing.T) {
	content := "1/1/23, 9:00 AM - Alice: one\u2028two\u2029three\u0085four\v" +
		"1/1/23, 9:01 AM - Bob: five\ffive more\n"

	got := Segment(content)
	if len(got) != 2 {
		t.Fatalf("expected 2 raw messages, got %d: %q", len(got), got)
	}
	if got[0] != "1/1/23, 9:00 AM - Alice: one two three four" {
		t.Errorf("raw[0] = %q", got[0])
	}
	if got[1] != "1/1/23, 9:01 AM - Bob: five five more" {
		t.Errorf("raw[1] = %q", got[1])
	}
}

func TestSegment_MixedConventions(t *testing.T) {
	content := strings.Join([]string{
		"[1/1/23, 9:00:00 AM] Alice: bracketed",
		"1/1/23, 21:05 - Bob: dashed, 24h",
		"1/1/23, 9:06 pm - Carol: dashed, lowercase",
	}, "\n")

	got := Segment(content)
	if len(got) != 3 {
		t.Fatalf("expected 3 raw messages, got %d: %q", len(got), got)
	}
}

func TestSegment_LeadingTextWithoutTimestamp(t *testing.T) {
	content := "\n\nMessages are end-to-end encrypted.\n1/1/23, 9:00 AM - Alice: hi"

	got := Segment(content)
	if len(got) != 2 {
		t.Fatalf("expected 2 raw messages, got %d: %q", len(got), got)
	}
	if got[0] != "Messages are end-to-end encrypted." {
		t.Errorf("raw[0] = %q, want no leading space", got[0])
	}
}

func TestSegment_BlankLineInsideMessage(t *testing.T) {
	got := Segment("1/1/23, 9:00 AM - Alice: top\n\nbottom")
	if len(got) != 1 {
		t.Fatalf("expected 1 raw message, got %d", len(got))
	}
	if got[0] != "1/1/23, 9:00 AM - Alice: top  bottom" {
		t.Errorf("raw[0] = %q", got[0])
	}
}

func TestSegment_Empty(t *testing.T) {
	if got := Segment(""); len(got) != 0 {
		t.Errorf("expected no raw messages, got %q", got)
	}
	if got := Segment("\n\n  \n"); len(got) != 0 {
		t.Errorf("expected no raw messages for blank lines, got %q", got)
	}
}

func TestIsMessageStart(t *testing.T) {
	cases := map[string]bool{
		"1/1/23, 9:00 AM - Alice: hi":          true,
		"12/31/2023, 23:59 - Bob: late":        true,
		"[1/1/23, 9:00:00 PM] Alice: hi":       true,
		"[1/1/23, 9:00 PM] Alice: hi":          false,
		"see you at 9:00 PM - ok":              false,
		"1/1/23 9:00 AM - missing comma":       false,
		"1/1/23, 9:00\u202fAM - Alice: narrow": true,
		// Day-first bracketed exports are extracted but never split on.
		"[25/12/2023, 9:41:07 pm] Alice: hi": false,
		"[25/12/2023, 9:41:07PM] Alice: hi":  false,
	}
	for line, want := range cases {
		if got := IsMessageStart(line); got != want {
			t.Errorf("IsMessageStart(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestCountContinuations(t *testing.T) {
	content := strings.Join([]string{
		"Messages are end-to-end encrypted.",
		"1/1/23, 9:00 AM - Alice: first line",
		"wrapped line",
		"",
		"1/1/23, 9:01 AM - Bob: hi",
		"[25/12/2023, 9:41:07 pm] Carol: not a boundary",
	}, "\n")

	if got := CountContinuations(content); got != 3 {
		t.Errorf("CountContinuations = %d, want 3", got)
	}
	if got := CountContinuations(""); got != 0 {
		t.Errorf("CountContinuations(empty) = %d, want 0", got)
	}
}
