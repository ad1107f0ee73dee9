package chatlog

import "testing"

func TestExtractEntry(t *testing.T) {
	cases := []struct {
		raw     string
		subject string
		message string
	}{
		{"1/1/23, 9:00 AM - Alice: Hello there How are you?", "Alice", "Hello there How are you?"},
		{"1/1/23, 9:01 am - Bob: meet at 10:30: ok?", "Bob", "meet at 10:30: ok?"},
		{"12/31/23, 21:05 - Carol: late night", "Carol", "late night"},
		{"[1/1/23, 9:00:00 AM] Dana: bracketed: yes", "Dana", "bracketed: yes"},
		{"[25/12/2023, 9:41:07pm] Eve Smith: merry", "Eve Smith", "merry"},
		{"[25/12/2023, 9:41:07 pm] +1 555 0100: hi", "+1 555 0100", "hi"},
		{"1/1/23, 9:00 AM - Alice:", "Alice", ""},
	}

	for _, tc := range cases {
		got, ok := ExtractEntry(tc.raw)
		if !ok {
			t.Errorf("ExtractEntry(%q) did not match", tc.raw)
			continue
		}
		if got.Subject != tc.subject || got.Message != tc.message {
			t.Errorf("ExtractEntry(%q) = %q %q, want %q %q", tc.raw, got.Subject, got.Message, tc.subject, tc.message)
		}
	}
}

func TestExtractEntry_NoSender(t *testing.T) {
	for _, raw := range []string{
		"1/1/23, 9:02 AM - Alice added Bob",
		"1/1/23, 9:02 AM - Alice created group \"Trip\"",
		"[1/1/23, 9:00:00 AM] Messages and calls are end-to-end encrypted",
		"Messages are end-to-end encrypted.",
		"",
	} {
		if e, ok := ExtractEntry(raw); ok {
			t.Errorf("ExtractEntry(%q) matched as %q %q, want drop", raw, e.Subject, e.Message)
		}
	}
}

func TestExtractEntries_DropsNotifications(t *testing.T) {
	raw := []string{
		"1/1/23, 9:00 AM - Alice: Hello",
		"1/1/23, 9:02 AM - Alice added Bob",
		"1/1/23, 9:03 AM - Bob: Thanks",
	}

	entries, dropped := ExtractEntries(raw)
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0] != (Entry{Subject: "Alice", Message: "Hello"}) {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1] != (Entry{Subject: "Bob", Message: "Thanks"}) {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}
