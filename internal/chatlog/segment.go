package chatlog

import (
	"regexp"
	"strings"
)

const (
	// dashPrefix matches "1/2/23, 9:41 PM - " and the 24h "1/2/23, 21:41 - ".
	dashPrefix = `\d+/\d+/\d+, \d{1,2}:\d{2}(?:\s*[AaPp][Mm])?\s*-\s*`
	// bracketPrefix matches "[1/2/23, 9:41:07 PM]".
	bracketPrefix = `\[\d+/\d+/\d+, \d{1,2}:\d{2}:\d{2} [APM]{2}\]`
)

var timestampPattern = regexp.MustCompile(`^(?:` + dashPrefix + `|` + bracketPrefix + `)`)

var exportCleaner = strings.NewReplacer(
	"\u200e", "",  // left-to-right mark injected before sender names
	"\u202f", " ", // narrow no-break space between time and AM/PM
)

// Segment splits the content of a chat export into raw messages. A raw
// message starts at a line with a timestamp prefix; lines without one are
// wrapped continuations and get folded into the previous message.
func Segment(content string) []string {
	content = exportCleaner.Replace(content)

	var messages []string
	var current string

	for _, line := range splitLines(content) {
		line = strings.TrimSpace(line)

		if timestampPattern.MatchString(line) {
			if current != "" {
				messages = append(messages, current)
			}
			current = line
			continue
		}

		// Text before the first timestamp has nothing to attach to.
		if current == "" {
			current = line
			continue
		}
		current += " " + line
	}

	if current != "" {
		messages = append(messages, current)
	}

	return messages
}

// IsMessageStart reports whether line begins a new message.
func IsMessageStart(line string) bool {
	return timestampPattern.MatchString(strings.TrimSpace(exportCleaner.Replace(line)))
}

// CountContinuations returns how many non-blank lines of content do not
// start a message and so were folded into a neighbouring one.
func CountContinuations(content string) int {
	n := 0
	for _, line := range splitLines(exportCleaner.Replace(content)) {
		if strings.TrimSpace(line) != "" && !IsMessageStart(line) {
			n++
		}
	}
	return n
}

// lineBreaks normalizes every line boundary an export may carry to "\n":
// CRLF, lone CR, vertical tab, form feed, the file/group/record separators,
// NEL and the Unicode line and paragraph separators.
var lineBreaks = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\v", "\n",
	"\f", "\n",
	"\x1c", "\n",
	"\x1d", "\n",
	"\x1e", "\n",
	"\u0085", "\n",
	"\u2028", "\n",
	"\u2029", "\n",
)

func splitLines(content string) []string {
	content = lineBreaks.Replace(content)
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
