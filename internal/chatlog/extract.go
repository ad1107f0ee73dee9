package chatlog

import (
	"regexp"
	"strings"
)

// dayFirstPrefix matches bracketed exports with a four digit year, e.g.
// "[25/12/2023, 9:41:07 pm]". The marker may be lowercase or unspaced.
const dayFirstPrefix = `\[\d{1,2}/\d{1,2}/\d{4},\s\d{1,2}:\d{2}:\d{2}\s?[AaPp][Mm]\]`

// entryPattern captures the sender (up to the first colon after the
// timestamp) and the rest of the message, which may contain colons.
var entryPattern = regexp.MustCompile(`^(?:` + dashPrefix + `|` + bracketPrefix + `\s*|` + dayFirstPrefix + `\s*)([^:]+):\s*(.*)$`)

// ExtractEntry splits a raw message into subject and message. It returns
// false for lines without a "sender:" part, such as group notifications.
func ExtractEntry(raw string) (Entry, bool) {
	m := entryPattern.FindStringSubmatch(raw)
	if m == nil {
		return Entry{}, false
	}
	subject := strings.TrimSpace(m[1])
	if subject == "" {
		return Entry{}, false
	}
	return Entry{Subject: subject, Message: m[2]}, true
}

// ExtractEntries runs ExtractEntry over raw messages, dropping the ones
// that do not match. It returns the entries and the number dropped.
func ExtractEntries(raw []string) ([]Entry, int) {
	entries := make([]Entry, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		e, ok := ExtractEntry(r)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, e)
	}
	return entries, dropped
}
