package training

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/vault"
)

// Decode turns a stored record back into an Interaction, opening sealed
// payloads with v.
func Decode(rec store.TrainingRecord, v *vault.Vault) (Interaction, error) {
	payload := rec.Payload
	if rec.Sealed {
		if v == nil {
			return Interaction{}, errors.New("training: sealed record requires a vault passphrase")
		}
		opened, err := v.Open(payload)
		if err != nil {
			return Interaction{}, fmt.Errorf("open record %s: %w", rec.ID, err)
		}
		payload = opened
	}

	var in Interaction
	if err := json.Unmarshal(payload, &in); err != nil {
		return Interaction{}, fmt.Errorf("decode record %s: %w", rec.ID, err)
	}
	return in, nil
}

// Export writes every stored interaction as zstd-compressed JSON lines and
// returns how many were written.
func Export(s *store.Store, v *vault.Vault, agentID string, w io.Writer) (int, error) {
	records, err := s.ListTrainingRecords(agentID)
	if err != nil {
		return 0, err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("create zstd writer: %w", err)
	}
	defer zw.Close()

	enc := json.NewEncoder(zw)
	n := 0
	for _, rec := range records {
		in, err := Decode(rec, v)
		if err != nil {
			return n, err
		}
		if err := enc.Encode(in); err != nil {
			return n, fmt.Errorf("write record: %w", err)
		}
		n++
	}

	// Close explicitly to surface the final flush error.
	if err := zw.Close(); err != nil {
		return n, fmt.Errorf("close zstd: %w", err)
	}
	return n, nil
}
