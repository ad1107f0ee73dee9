package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
)

// DefaultSystemPrompt is the system message written into chat datasets.
const DefaultSystemPrompt = "You are a helpful assistant continuing a chat conversation."

var (
	// ErrInvalidPath is returned when a destination path lacks the extension
	// its format requires.
	ErrInvalidPath = errors.New("invalid output path")
	// ErrUnknownFormat is returned for unrecognised format names.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Format names an export layout.
type Format string

const (
	FormatCSV              Format = "csv"
	FormatJSONL            Format = "jsonl"
	FormatPromptCompletion Format = "prompt-completion"
	FormatChat             Format = "chat"
	FormatChatSingle       Format = "chat-single"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatCSV, FormatJSONL, FormatPromptCompletion, FormatChat, FormatChatSingle}

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Extension returns the file extension Save requires for the format, or
// "" when any path is accepted.
func (f Format) Extension() string {
	switch f {
	case FormatPromptCompletion, FormatChat, FormatChatSingle:
		return ".jsonl"
	default:
		return ""
	}
}

// ContentType is the HTTP media type of the format's output.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/x-ndjson"
}

// Options controls dataset details.
type Options struct {
	// SystemPrompt is the system message for chat formats. Empty means
	// DefaultSystemPrompt.
	SystemPrompt string
	// MainSubject is tagged "user" in chat-single output. Empty means the
	// subject of the first entry.
	MainSubject string
}

func (o Options) systemPrompt() string {
	if o.SystemPrompt == "" {
		return DefaultSystemPrompt
	}
	return o.SystemPrompt
}

// Write renders entries in format f to w.
func Write(w io.Writer, f Format, entries []chatlog.Entry, opts Options) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatJSONL:
		return WriteJSONL(w, entries)
	case FormatPromptCompletion:
		return WritePromptCompletion(w, entries)
	case FormatChat:
		return WriteChat(w, entries, opts.systemPrompt())
	case FormatChatSingle:
		return WriteChatSingle(w, entries, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Save writes entries in format f to path, creating or truncating it. The
// output is rendered in memory first so a failed render leaves path as it
// was.
func Save(path string, f Format, entries []chatlog.Entry, opts Options) error {
	if err := CheckPath(path, f); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Write(&buf, f, entries, opts); err != nil {
		return fmt.Errorf("write %s: %w", f, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// CheckPath validates that path carries the extension f requires.
func CheckPath(path string, f Format) error {
	ext := f.Extension()
	if ext == "" {
		return nil
	}
	if !strings.EqualFold(filepath.Ext(path), ext) {
		return fmt.Errorf("%w: %s output must end in %s, got %q", ErrInvalidPath, f, ext, path)
	}
	return nil
}
