package chatlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Parser holds the parsed state of one chat export. It is not safe for
// concurrent use.
type Parser struct {
	raw      []string
	entries  []Entry
	subjects map[string]struct{}
	dropped  int

	collapse bool
	logger   *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithTurnCollapsing controls whether consecutive messages from the same
// sender are merged into one turn. Enabled by default.
func WithTurnCollapsing(enabled bool) Option {
	return func(p *Parser) { p.collapse = enabled }
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// ParseFile reads a chat export from disk and parses it.
func ParseFile(path string, opts ...Option) (*Parser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chat export: %w", err)
	}
	p, err := ParseBytes(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// ParseBytes parses raw export bytes, rejecting content that is not UTF-8.
func ParseBytes(data []byte, opts ...Option) (*Parser, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	return Parse(string(data), opts...)
}

// Parse segments content into raw messages, extracts entries and, unless
// disabled, collapses them into turns.
func Parse(content string, opts ...Option) (*Parser, error) {
	p := &Parser{
		collapse: true,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.raw = Segment(content)
	p.entries, p.dropped = ExtractEntries(p.raw)
	p.subjects = subjectSet(p.entries)

	if p.collapse {
		turns, err := CollapseTurns(p.entries)
		if err != nil {
			return nil, fmt.Errorf("collapse turns: %w", err)
		}
		p.entries = turns
	}

	p.logger.Debug("chat export parsed",
		"raw_messages", len(p.raw),
		"entries", len(p.entries),
		"dropped", p.dropped,
		"subjects", len(p.subjects),
		"collapsed", p.collapse,
	)

	return p, nil
}

// RawMessages returns the segmented messages before sender extraction.
func (p *Parser) RawMessages() []string {
	out := make([]string, len(p.raw))
	copy(out, p.raw)
	return out
}

// Entries returns a copy of the current entries.
func (p *Parser) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of entries.
func (p *Parser) Len() int {
	return len(p.entries)
}

// Dropped returns how many raw messages had no sender and were skipped.
func (p *Parser) Dropped() int {
	return p.dropped
}

// Subjects returns the distinct senders, sorted. The set is taken when the
// export is parsed; ReplaceSubject and SetMainSubject do not refresh it.
func (p *Parser) Subjects() []string {
	out := make([]string, 0, len(p.subjects))
	for s := range p.subjects {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// HasSubject reports whether name is in the sender set.
func (p *Parser) HasSubject(name string) bool {
	_, ok := p.subjects[name]
	return ok
}

// MainSubject returns the sender of the first entry.
func (p *Parser) MainSubject() (string, error) {
	if len(p.entries) == 0 {
		return "", ErrEmptyState
	}
	return p.entries[0].Subject, nil
}

// SetMainSubject drops the leading entry when name is a known sender other
// than the current main subject. It only trims the head; it never moves
// name's messages to the front.
func (p *Parser) SetMainSubject(name string) error {
	if !p.HasSubject(name) {
		return fmt.Errorf("set main subject %q: %w", name, ErrUnknownSender)
	}
	current, err := p.MainSubject()
	if err != nil {
		return fmt.Errorf("set main subject %q: %w", name, err)
	}
	if current == name {
		return nil
	}
	p.entries = p.entries[1:]
	return nil
}

// ReplaceSubject renames every entry sent by oldName to newName.
func (p *Parser) ReplaceSubject(oldName, newName string) error {
	if !p.HasSubject(oldName) {
		return fmt.Errorf("replace subject %q: %w", oldName, ErrUnknownSender)
	}
	renamed := 0
	for i := range p.entries {
		if p.entries[i].Subject == oldName {
			p.entries[i].Subject = newName
			renamed++
		}
	}
	p.logger.Debug("subject replaced", "old", oldName, "new", newName, "entries", renamed)
	return nil
}

func subjectSet(entries []Entry) map[string]struct{} {
	return lo.Keyify(lo.Map(entries, func(e Entry, _ int) string { return e.Subject }))
}
