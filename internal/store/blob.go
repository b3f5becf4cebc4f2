package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rcliao/desk-memory/internal/model"
)

// Blob names and their current schema versions.
const (
	PersistentBlob = "persistent-memory"
	UsageBlob      = "usage-history"

	PersistentVersion = 1
	UsageVersion      = 1
)

// persistedBlobs is the serialization allow-list. The conversation and
// session tiers have no entry and are never written to a backend.
var persistedBlobs = map[string]int{
	PersistentBlob: PersistentVersion,
	UsageBlob:      UsageVersion,
}

// PersistentEnvelope is the document stored under PersistentBlob.
type PersistentEnvelope struct {
	PersistentMemories []model.PersistentMemoryRecord `json:"persistent_memories"`
}

// UsageEnvelope is the document stored under UsageBlob.
type UsageEnvelope struct {
	UsageHistory []model.UsageEvent `json:"usage_history"`
}

// migration upgrades a blob payload from version N to N+1.
type migration func(data []byte) ([]byte, error)

// migrations maps blob name -> source version -> step.
var migrations = map[string]map[int]migration{}

// EncodeBlob marshals v as the current version of the named blob.
func EncodeBlob(name string, v any) (Blob, error) {
	version, ok := persistedBlobs[name]
	if !ok {
		return Blob{}, fmt.Errorf("blob %q is not on the persistence allow-list", name)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Blob{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Blob{Name: name, Version: version, Data: data}, nil
}

// DecodeBlob migrates b to the current version and unmarshals it into dst.
// Versions without a migration handler are loaded as-is.
func DecodeBlob(b *Blob, dst any, log *slog.Logger) error {
	data, err := migrateBlob(b.Name, b.Version, b.Data, orDefault(log))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", b.Name, err)
	}
	return nil
}

func migrateBlob(name string, version int, data []byte, log *slog.Logger) ([]byte, error) {
	current := persistedBlobs[name]
	for version < current {
		step, ok := migrations[name][version]
		if !ok {
			log.Warn("no migration for blob version, loading as-is",
				"blob", name, "version", version, "current", current)
			return data, nil
		}
		out, err := step(data)
		if err != nil {
			return nil, fmt.Errorf("migrate %s from v%d: %w", name, version, err)
		}
		data = out
		version++
	}
	if version > current {
		log.Warn("blob written by a newer schema, loading as-is",
			"blob", name, "version", version, "current", current)
	}
	return data, nil
}

// loadEnvelope reads and decodes a named blob. A missing blob, an unreadable
// backend or a corrupt payload all leave dst untouched; only the first is
// silent.
func loadEnvelope(ctx context.Context, b Backend, name string, dst any, log *slog.Logger) bool {
	blob, err := b.LoadBlob(ctx, name)
	if errors.Is(err, ErrBlobNotFound) {
		return false
	}
	if err != nil {
		log.Warn("durable storage unavailable, starting empty", "blob", name, "error", err)
		return false
	}
	if err := DecodeBlob(blob, dst, log); err != nil {
		log.Warn("discarding unreadable blob", "blob", name, "error", err)
		return false
	}
	return true
}

// LoadUsageHistory reads the usage history blob from b.
func LoadUsageHistory(ctx context.Context, b Backend, log *slog.Logger) []model.UsageEvent {
	var env UsageEnvelope
	if !loadEnvelope(ctx, b, UsageBlob, &env, orDefault(log)) {
		return nil
	}
	return env.UsageHistory
}

func orDefault(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
