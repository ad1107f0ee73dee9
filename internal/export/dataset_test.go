package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
)

func TestPairs_DropsUnpairedTail(t *testing.T) {
	req := require.New(t)

	pairs := Pairs(sample)
	req.Len(pairs, 1)
	req.Equal(Pair{Prompt: "Hello there How are you?", Completion: "Good, thanks!"}, pairs[0])

	even := append(append([]chatlog.Entry{}, sample...), chatlog.Entry{Subject: "Bob", Message: "Sure"})
	pairs = Pairs(even)
	req.Len(pairs, 2)
	req.Equal(Pair{Prompt: "Lunch at 12:30, \"usual\" place?", Completion: "Sure"}, pairs[1])

	req.Empty(Pairs(nil))
	req.Empty(Pairs(sample[:1]))
}

func TestWritePromptCompletion(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	req.NoError(WritePromptCompletion(&buf, sample))

	var got Pair
	req.NoError(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got))
	req.Equal("Hello there How are you?", got.Prompt)
	req.Equal("Good, thanks!", got.Completion)
}

func TestWriteChat(t *testing.T) {
	req := require.New(t)
	entries := []chatlog.Entry{
		{Subject: "Alice", Message: "q1"},
		{Subject: "Bob", Message: "a1"},
		{Subject: "Alice", Message: "q2"},
		{Subject: "Bob", Message: "a2"},
	}
	var buf bytes.Buffer

	req.NoError(WriteChat(&buf, entries, "sys"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	req.Len(lines, 2)

	var rec ChatRecord
	req.NoError(json.Unmarshal([]byte(lines[1]), &rec))
	req.Equal([]ChatMessage{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "q2"},
		{Role: RoleAssistant, Content: "a2"},
	}, rec.Messages)
}

func TestWriteChatSingle_TagsMainSubject(t *testing.T) {
	req := require.New(t)
	entries := []chatlog.Entry{
		{Subject: "Alice", Message: "hi"},
		{Subject: "Bob", Message: "hey"},
		{Subject: "Carol", Message: "yo"},
		{Subject: "Alice", Message: "bye"},
	}
	var buf bytes.Buffer

	req.NoError(WriteChatSingle(&buf, entries, Options{}))
	req.Equal(1, strings.Count(buf.String(), "\n"), "single record on one line")

	var rec ChatRecord
	req.NoError(json.Unmarshal(buf.Bytes(), &rec))
	req.Len(rec.Messages, 5)
	req.Equal(ChatMessage{Role: RoleSystem, Content: DefaultSystemPrompt}, rec.Messages[0])

	roles := make([]string, 0, 4)
	for _, m := range rec.Messages[1:] {
		roles = append(roles, m.Role)
	}
	req.Equal([]string{RoleUser, RoleAssistant, RoleAssistant, RoleUser}, roles)
}

func TestConversationRecord_ExplicitMainSubject(t *testing.T) {
	req := require.New(t)

	rec, err := ConversationRecord(sample, Options{MainSubject: "Bob", SystemPrompt: "s"})
	req.NoError(err)
	req.Equal(RoleAssistant, rec.Messages[1].Role)
	req.Equal(RoleUser, rec.Messages[2].Role)
}

func TestConversationRecord_Empty(t *testing.T) {
	_, err := ConversationRecord(nil, Options{})
	require.ErrorIs(t, err, chatlog.ErrEmptyState)
}
