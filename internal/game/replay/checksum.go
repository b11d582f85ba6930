package replay

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

// Checksum identifies an event stream. Two runs of the same problem, seed and
// user line produce the same checksum.
type Checksum struct {
	Hash    string `json:"hash"`
	Events  int    `json:"events"`
	Version int    `json:"version"`
}

// ComputeChecksum hashes the canonical text form of every event, one per line.
func ComputeChecksum(events []engine.Event) (Checksum, error) {
	hash := sha256.New()
	for _, ev := range events {
		if _, err := fmt.Fprintln(hash, ev.String()); err != nil {
			return Checksum{}, fmt.Errorf("failed to compute hash: %w", err)
		}
	}
	return Checksum{
		Hash:    hex.EncodeToString(hash.Sum(nil)),
		Events:  len(events),
		Version: 1,
	}, nil
}

// String returns the short form of the hash.
func (c Checksum) String() string {
	if len(c.Hash) < 12 {
		return c.Hash
	}
	return c.Hash[:12]
}
