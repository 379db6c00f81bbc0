package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/nats-io/nats.go"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/natsbus"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/training"
)

func TestParseExportArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    exportOptions
		wantErr bool
	}{
		{"output only", []string{"-f", "out.zst"}, exportOptions{output: "out.zst"}, false},
		{"with agent", []string{"-agent", "roxy", "-f", "out.zst"}, exportOptions{output: "out.zst", agentID: "roxy"}, false},
		{"missing output", []string{"-agent", "roxy"}, exportOptions{}, true},
		{"dangling flag", []string{"-f"}, exportOptions{}, true},
		{"unknown flag", []string{"-x", "1"}, exportOptions{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExportArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseEventsArgs(t *testing.T) {
	t.Setenv("SOLOSUCCESS_NATS_URL", "")
	tests := []struct {
		name    string
		args    []string
		want    eventsOptions
		wantErr bool
	}{
		{"defaults", nil, eventsOptions{url: nats.DefaultURL, topic: natsbus.TopicEventsAll}, false},
		{"one workflow", []string{"-workflow", "wf-1"}, eventsOptions{url: nats.DefaultURL, topic: "events.workflow.wf-1"}, false},
		{"only chats", []string{"-only", "chats", "-nats", "nats://h:1"}, eventsOptions{url: "nats://h:1", topic: natsbus.TopicEventsChats}, false},
		{"only workflows", []string{"-only", "workflows"}, eventsOptions{url: nats.DefaultURL, topic: natsbus.TopicEventsWorkflows}, false},
		{"only agents", []string{"-only", "agents"}, eventsOptions{url: nats.DefaultURL, topic: natsbus.TopicEventsAgents}, false},
		{"unknown kind", []string{"-only", "tasks"}, eventsOptions{}, true},
		{"dangling flag", []string{"-nats"}, eventsOptions{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEventsArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseEventsArgsUsesEnvURL(t *testing.T) {
	t.Setenv("SOLOSUCCESS_NATS_URL", "nats://env:4222")
	got, err := parseEventsArgs(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.url != "nats://env:4222" {
		t.Errorf("expected env url, got %s", got.url)
	}
}

func TestExportTo(t *testing.T) {
	dir := t.TempDir()
	db, err := store.New(config.StoreConfig{Path: filepath.Join(dir, "test.db")})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer db.Close()

	c := training.NewCollector(db, nil, 8)
	c.Start()
	for _, id := range []string{"roxy", "lumi", "roxy"} {
		if _, err := c.Record(context.Background(), training.Interaction{AgentID: id, Prompt: "p", Response: "r"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	c.Close()

	out := filepath.Join(dir, "roxy.jsonl.zst")
	n, err := exportTo(db, nil, exportOptions{output: out, agentID: "roxy"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 records, got %d", n)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer zr.Close()

	lines := 0
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		var in training.Interaction
		if err := json.Unmarshal(sc.Bytes(), &in); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if in.AgentID != "roxy" {
			t.Errorf("unexpected agent %s", in.AgentID)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestPrintEvent(t *testing.T) {
	data, _ := json.Marshal(natsbus.Event{
		Type:      "workflow_completed",
		Timestamp: "2026-03-01T10:00:00Z",
		Data:      map[string]any{"results": 2, "agent": "lumi"},
	})

	var buf bytes.Buffer
	printEvent(&buf, "events.workflow.wf-1", data)
	want := "2026-03-01T10:00:00Z\tevents.workflow.wf-1\tworkflow_completed\tagent=lumi results=2\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	printEvent(&buf, "events.chat.local", []byte("not json"))
	if !strings.Contains(buf.String(), "invalid payload") {
		t.Errorf("expected invalid payload note, got %q", buf.String())
	}
}
