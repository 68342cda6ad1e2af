package models

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ImageConfig is one stored image configuration document, keyed by the
// digest of its serialized form.
type ImageConfig struct {
	ID           string // UUIDv7 of the first insert
	Digest       string // sha256 digest of Document
	Reference    string // image reference it was last seen under, may be empty
	Architecture string
	OS           string
	Document     []byte // serialized image config
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertImageConfig inserts cfg, or refreshes Reference and UpdatedAt if the
// digest is already stored. cfg.ID and timestamps are set from the stored row.
func UpsertImageConfig(ctx context.Context, specDB *sql.DB, cfg *ImageConfig) error {
	query := `
		INSERT INTO image_configs (id, digest, reference, architecture, os, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET
			reference = CASE WHEN excluded.reference = '' THEN image_configs.reference ELSE excluded.reference END,
			updated_at = excluded.updated_at
	`
	now := time.Now().Unix()
	_, err := specDB.ExecContext(ctx, query,
		cfg.ID, cfg.Digest, cfg.Reference, cfg.Architecture, cfg.OS,
		cfg.Document, now, now)
	if err != nil {
		return err
	}

	stored, err := GetImageConfigByDigest(ctx, specDB, cfg.Digest)
	if err != nil {
		return err
	}
	*cfg = *stored
	return nil
}

// GetImageConfigByDigest returns sql.ErrNoRows if the digest is unknown.
func GetImageConfigByDigest(ctx context.Context, specDB *sql.DB, digest string) (*ImageConfig, error) {
	query := `SELECT id, digest, reference, architecture, os, document, created_at, updated_at FROM image_configs WHERE digest = ?`
	row := specDB.QueryRowContext(ctx, query, digest)

	cfg, err := scanImageConfig(row)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ListImageConfigs returns all stored configs, most recently updated first.
func ListImageConfigs(ctx context.Context, specDB *sql.DB) ([]*ImageConfig, error) {
	query := `SELECT id, digest, reference, architecture, os, document, created_at, updated_at FROM image_configs ORDER BY updated_at DESC, id DESC`
	rows, err := specDB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*ImageConfig
	for rows.Next() {
		cfg, err := scanImageConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// DeleteImageConfig returns sql.ErrNoRows if nothing was deleted.
func DeleteImageConfig(ctx context.Context, specDB *sql.DB, digest string) error {
	res, err := specDB.ExecContext(ctx, `DELETE FROM image_configs WHERE digest = ?`, digest)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImageConfig(row scanner) (*ImageConfig, error) {
	var createdAt, updatedAt int64
	cfg := &ImageConfig{}
	err := row.Scan(&cfg.ID, &cfg.Digest, &cfg.Reference, &cfg.Architecture, &cfg.OS,
		&cfg.Document, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}

	cfg.CreatedAt = time.Unix(createdAt, 0)
	cfg.UpdatedAt = time.Unix(updatedAt, 0)
	return cfg, nil
}
