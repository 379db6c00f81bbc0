package training

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/vault"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCollectorPersists(t *testing.T) {
	s := newTestStore(t)
	c := NewCollector(s, nil, 8)
	c.Start()

	for _, agentID := range []string{"roxy", "lumi", "roxy"} {
		id, err := c.Record(context.Background(), Interaction{AgentID: agentID, Kind: KindProcessRequest, Prompt: "p", Response: "r", Success: true})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if id == "" {
			t.Fatal("expected an id")
		}
	}
	c.Close()

	n, err := s.CountTrainingRecords()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 records, got %d", n)
	}

	recs, _ := s.ListTrainingRecords("roxy")
	if len(recs) != 2 {
		t.Fatalf("expected 2 roxy records, got %d", len(recs))
	}
	if recs[0].Sealed {
		t.Error("expected plain payload without a vault")
	}
	in, err := Decode(recs[0], nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.Prompt != "p" || in.Kind != KindProcessRequest {
		t.Errorf("unexpected interaction %+v", in)
	}
}

func TestCollectorNeverBlocks(t *testing.T) {
	s := newTestStore(t)
	c := NewCollector(s, nil, 1)

	// Nothing drains the queue, so the second record must be dropped.
	if _, err := c.Record(context.Background(), Interaction{AgentID: "a"}); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if _, err := c.Record(context.Background(), Interaction{AgentID: "a"}); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
	if c.Dropped() != 1 {
		t.Errorf("expected 1 dropped, got %d", c.Dropped())
	}

	c.Close()
	if _, err := c.Record(context.Background(), Interaction{AgentID: "a"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSealedExport(t *testing.T) {
	s := newTestStore(t)
	v, err := vault.New("passphrase")
	if err != nil {
		t.Fatalf("vault: %v", err)
	}

	c := NewCollector(s, v, 8)
	c.Start()
	_, _ = c.Record(context.Background(), Interaction{AgentID: "roxy", Prompt: "raise prices?", Response: "maybe"})
	_, _ = c.Record(context.Background(), Interaction{AgentID: "lumi", Prompt: "terms of service", Response: "review"})
	c.Close()

	recs, _ := s.ListTrainingRecords("")
	for _, r := range recs {
		if !r.Sealed {
			t.Fatalf("expected sealed record %s", r.ID)
		}
		if bytes.Contains(r.Payload, []byte("raise prices")) {
			t.Fatal("sealed payload leaks plaintext")
		}
	}

	if _, err := Export(s, nil, "", &bytes.Buffer{}); err == nil {
		t.Fatal("expected export of sealed records without a vault to fail")
	}

	var buf bytes.Buffer
	n, err := Export(s, v, "", &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 exported, got %d", n)
	}

	zr, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer zr.Close()

	var lines []Interaction
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		var in Interaction
		if err := json.Unmarshal(sc.Bytes(), &in); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines = append(lines, in)
	}
	if len(lines) != 2 || lines[0].Prompt != "raise prices?" {
		t.Fatalf("unexpected export %+v", lines)
	}
}
