package ingest

import (
	"io"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
)

// Per-file outcomes.
const (
	StatusStored    = "stored"
	StatusDryRun    = "dry-run"
	StatusDuplicate = "duplicate"
	StatusTooShort  = "too-short"
	StatusError     = "error"
)

// FileSummary is the ingest outcome for one export.
type FileSummary struct {
	Path           string
	Status         string
	MainSubject    string
	Subjects       int
	Entries        int
	Dropped        int
	ConversationID uuid.UUID
}

func summarize(path string, p *chatlog.Parser, status string) FileSummary {
	main, _ := p.MainSubject()
	return FileSummary{
		Path:        path,
		Status:      status,
		MainSubject: main,
		Subjects:    len(p.Subjects()),
		Entries:     p.Len(),
		Dropped:     p.Dropped(),
	}
}

// WriteSummary renders summaries as a table.
func WriteSummary(w io.Writer, summaries []FileSummary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Status", "Main subject", "Subjects", "Entries", "Dropped", "Conversation"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	var entries, dropped int
	for _, s := range summaries {
		id := ""
		if s.ConversationID != uuid.Nil {
			id = s.ConversationID.String()
		}
		table.Append([]string{
			filepath.Base(s.Path),
			s.Status,
			s.MainSubject,
			strconv.Itoa(s.Subjects),
			strconv.Itoa(s.Entries),
			strconv.Itoa(s.Dropped),
			id,
		})
		entries += s.Entries
		dropped += s.Dropped
	}
	table.SetFooter([]string{strconv.Itoa(len(summaries)) + " files", "", "", "", strconv.Itoa(entries), strconv.Itoa(dropped), ""})
	table.Render()
}
