package export

import (
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
)

// Role tags used in chat datasets.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Pair is one prompt/completion training example.
type Pair struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ChatMessage is one role-tagged message in a chat record.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRecord is one line of a chat dataset.
type ChatRecord struct {
	Messages []ChatMessage `json:"messages"`
}

// Pairs zips even-indexed messages (prompts) with odd-indexed ones
// (completions). A trailing message without a partner is dropped.
func Pairs(entries []chatlog.Entry) []Pair {
	prompts := lo.Filter(entries, func(_ chatlog.Entry, i int) bool { return i%2 == 0 })
	completions := lo.Filter(entries, func(_ chatlog.Entry, i int) bool { return i%2 == 1 })

	n := min(len(prompts), len(completions))
	pairs := make([]Pair, n)
	for i := 0; i < n; i++ {
		pairs[i] = Pair{Prompt: prompts[i].Message, Completion: completions[i].Message}
	}
	return pairs
}

// WritePromptCompletion writes one {"prompt","completion"} object per line.
func WritePromptCompletion(w io.Writer, entries []chatlog.Entry) error {
	enc := newEncoder(w)
	for _, p := range Pairs(entries) {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode pair: %w", err)
		}
	}
	return nil
}

// ChatRecords builds one system/user/assistant record per prompt pair.
func ChatRecords(entries []chatlog.Entry, systemPrompt string) []ChatRecord {
	return lo.Map(Pairs(entries), func(p Pair, _ int) ChatRecord {
		return ChatRecord{Messages: []ChatMessage{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: p.Prompt},
			{Role: RoleAssistant, Content: p.Completion},
		}}
	})
}

// WriteChat writes ChatRecords one per line.
func WriteChat(w io.Writer, entries []chatlog.Entry, systemPrompt string) error {
	enc := newEncoder(w)
	for _, rec := range ChatRecords(entries, systemPrompt) {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode chat record: %w", err)
		}
	}
	return nil
}

// ConversationRecord builds a single record holding the whole conversation.
// Messages from the main subject are tagged user; everyone else is the
// assistant.
func ConversationRecord(entries []chatlog.Entry, opts Options) (ChatRecord, error) {
	main := opts.MainSubject
	if main == "" {
		if len(entries) == 0 {
			return ChatRecord{}, chatlog.ErrEmptyState
		}
		main = entries[0].Subject
	}

	msgs := make([]ChatMessage, 0, len(entries)+1)
	msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: opts.systemPrompt()})
	for _, e := range entries {
		role := RoleAssistant
		if e.Subject == main {
			role = RoleUser
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: e.Message})
	}
	return ChatRecord{Messages: msgs}, nil
}

// WriteChatSingle writes ConversationRecord as a single line.
func WriteChatSingle(w io.Writer, entries []chatlog.Entry, opts Options) error {
	rec, err := ConversationRecord(entries, opts)
	if err != nil {
		return fmt.Errorf("build conversation record: %w", err)
	}
	if err := newEncoder(w).Encode(rec); err != nil {
		return fmt.Errorf("encode conversation record: %w", err)
	}
	return nil
}
