//go:build integration

package hermes

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_PublishConversationParsed(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx := context.Background()

	client, err := NewClient(ctx, natsURL, os.Getenv("NATS_TOKEN"), slog.Default())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	received := make(chan ConversationParsed, 1)

	err = client.QueueSubscribe("swarm.parrot.test.>", "parrot-test", func(subject string, data []byte) {
		var evt ConversationParsed
		json.Unmarshal(data, &evt)
		received <- evt
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// Give subscription time to propagate
	time.Sleep(100 * time.Millisecond)

	err = client.Publish("swarm.parrot.test.parsed", ConversationParsed{
		SourcePath:  "chat.txt",
		MainSubject: "Alice",
		Subjects:    []string{"Alice", "Bob"},
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case evt := <-received:
		if evt.MainSubject != "Alice" || len(evt.Subjects) != 2 {
			t.Errorf("unexpected event %+v", evt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestIntegration_SubscribeExportResult(t *testing.T) {
	natsURL := skipWithoutNATS(t)

	client, err := NewClient(context.Background(), natsURL, os.Getenv("NATS_TOKEN"), slog.Default())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	received := make(chan string, 1)
	if err := client.Subscribe("swarm.parrot.test.export.>", func(subject string, data []byte) {
		received <- subject
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := client.Publish("swarm.parrot.test.export.completed", ExportResult{Format: "csv"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case subject := <-received:
		if subject != "swarm.parrot.test.export.completed" {
			t.Errorf("unexpected subject %s", subject)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
