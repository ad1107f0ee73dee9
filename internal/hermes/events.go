package hermes

import "github.com/MikeSquared-Agency/parrot/internal/chatlog"

const (
	SubjectConversationParsed = "swarm.parrot.conversation.parsed"
	SubjectExportRequested    = "swarm.parrot.export.requested"
	SubjectExportCompleted    = "swarm.parrot.export.completed"
	SubjectExportFailed       = "swarm.parrot.export.failed"
	SubjectRegistered         = "swarm.agent.parrot.registered"
)

// ConversationParsed is published once a chat export has been parsed and,
// when a store is configured, persisted.
type ConversationParsed struct {
	ConversationID string          `json:"conversation_id,omitempty"`
	SourcePath     string          `json:"source_path"`
	MainSubject    string          `json:"main_subject"`
	Subjects       []string        `json:"subjects"`
	Entries        []chatlog.Entry `json:"entries"`
	RawMessages    int             `json:"raw_messages"`
	Dropped        int             `json:"dropped"`
}

// ExportRequest asks a parrot instance to parse an export and write a
// dataset. Content, when set, is parsed instead of reading SourcePath.
type ExportRequest struct {
	RequestID     string `json:"request_id,omitempty"`
	SourcePath    string `json:"source_path"`
	Content       string `json:"content,omitempty"`
	Format        string `json:"format"`
	OutputPath    string `json:"output_path"`
	CollapseTurns *bool  `json:"collapse_turns,omitempty"`
	MainSubject   string `json:"main_subject,omitempty"`
	Persist       bool   `json:"persist,omitempty"`
}

// ExportResult reports the outcome of an ExportRequest.
type ExportResult struct {
	RequestID      string `json:"request_id,omitempty"`
	SourcePath     string `json:"source_path"`
	Format         string `json:"format"`
	OutputPath     string `json:"output_path"`
	ConversationID string `json:"conversation_id,omitempty"`
	Entries        int    `json:"entries"`
	Error          string `json:"error,omitempty"`
}
