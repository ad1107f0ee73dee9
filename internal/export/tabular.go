package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
)

// WriteCSV writes a "subject,message" table, one row per entry.
func WriteCSV(w io.Writer, entries []chatlog.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"subject", "message"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Subject, e.Message}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONL writes one {"subject","message"} object per line.
func WriteJSONL(w io.Writer, entries []chatlog.Entry) error {
	enc := newEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
	}
	return nil
}

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}
