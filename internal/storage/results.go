package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// ResultSink receives structured analysis results.
type ResultSink interface {
	Record(ctx context.Context, kind, key string, payload any) (string, error)
}

// Payload encodings
const (
	EncodingJSON = "json"
	EncodingZstd = "json+zstd"
)

// compressAbove is the payload size from which payloads are stored compressed
const compressAbove = 512

// Result is one recorded analysis output
type Result struct {
	ID            string          `json:"id"`
	WorkspaceRoot string          `json:"workspaceRoot"`
	Kind          string          `json:"kind"`
	Key           string          `json:"key"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ResultRepository is the sqlite ResultSink for one workspace
type ResultRepository struct {
	db            *DB
	workspaceRoot string
	compress      bool
	encoder       *zstd.Encoder
	decoder       *zstd.Decoder
}

// NewResultRepository creates a result repository scoped to workspaceRoot
func NewResultRepository(db *DB, workspaceRoot string) (*ResultRepository, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ResultRepository{
		db:            db,
		workspaceRoot: filepath.Clean(workspaceRoot),
		compress:      true,
		encoder:       enc,
		decoder:       dec,
	}, nil
}

// Close releases the codec resources
func (r *ResultRepository) Close() error {
	r.decoder.Close()
	return r.encoder.Close()
}

// SetCompression turns zstd compression of large payloads on or off. It is on by default.
func (r *ResultRepository) SetCompression(enabled bool) {
	r.compress = enabled
}

// Record stores payload as JSON under (kind, key) and returns the new row id.
func (r *ResultRepository) Record(ctx context.Context, kind, key string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s result: %w", kind, err)
	}

	encoding := EncodingJSON
	stored := raw
	if r.compress && len(raw) >= compressAbove {
		encoding = EncodingZstd
		stored = r.encoder.EncodeAll(raw, nil)
	}

	id := uuid.NewString()
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO analysis_results (id, workspace_root, kind, key, encoding, payload, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, r.workspaceRoot, kind, key, encoding, stored, time.Now().UTC().Format(timeLayout))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to record %s result: %w", kind, err)
	}

	r.db.logger.Debug("Recorded result",
		"kind", kind,
		"key", key,
		"encoding", encoding,
		"bytes", len(stored),
	)
	return id, nil
}

// Latest returns the most recent result for (kind, key)
func (r *ResultRepository) Latest(ctx context.Context, kind, key string) (*Result, bool, error) {
	results, err := r.query(ctx, `
		SELECT id, kind, key, encoding, payload, created_at FROM analysis_results
		WHERE workspace_root = ? AND kind = ? AND key = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, r.workspaceRoot, kind, key)
	if err != nil {
		return nil, false, err
	}
	if len(results) == 0 {
		return nil, false, nil
	}
	return &results[0], true, nil
}

// Results returns every result of kind, oldest first. An empty kind lists all kinds.
func (r *ResultRepository) Results(ctx context.Context, kind string) ([]Result, error) {
	if kind == "" {
		return r.query(ctx, `
			SELECT id, kind, key, encoding, payload, created_at FROM analysis_results
			WHERE workspace_root = ? ORDER BY created_at, rowid
		`, r.workspaceRoot)
	}
	return r.query(ctx, `
		SELECT id, kind, key, encoding, payload, created_at FROM analysis_results
		WHERE workspace_root = ? AND kind = ? ORDER BY created_at, rowid
	`, r.workspaceRoot, kind)
}

// Prune deletes results recorded before cutoff and returns how many were removed
func (r *ResultRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM analysis_results WHERE workspace_root = ? AND created_at < ?",
			r.workspaceRoot, cutoff.UTC().Format(timeLayout),
		)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func (r *ResultRepository) query(ctx context.Context, query string, args ...any) ([]Result, error) {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var res Result
		var encoding, created string
		var stored []byte
		if err := rows.Scan(&res.ID, &res.Kind, &res.Key, &encoding, &stored, &created); err != nil {
			return nil, err
		}
		payload, err := r.decode(encoding, stored)
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", res.ID, err)
		}
		res.WorkspaceRoot = r.workspaceRoot
		res.Payload = payload
		res.CreatedAt, _ = time.Parse(timeLayout, created)
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *ResultRepository) decode(encoding string, stored []byte) ([]byte, error) {
	switch encoding {
	case EncodingJSON:
		return stored, nil
	case EncodingZstd:
		return r.decoder.DecodeAll(stored, nil)
	default:
		return nil, errors.New("unknown payload encoding " + encoding)
	}
}
