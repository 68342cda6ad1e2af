// Package store keeps serialized image configs in sqlite, addressed by the
// digest of their serialized form.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maxdollinger/imagespec/internal/db/models"
	"github.com/maxdollinger/imagespec/pkg/imagespec"
	"github.com/maxdollinger/imagespec/pkg/lock"
	"github.com/maxdollinger/imagespec/pkg/utils"
	"github.com/opencontainers/go-digest"
)

var ErrNotFound = errors.New("image config not found")

// Entry describes a stored config without decoding it.
type Entry struct {
	ID           string
	Digest       digest.Digest
	Reference    string
	Architecture string
	OS           string
}

type Store struct {
	db     *sql.DB
	locker lock.Locker
	logger *slog.Logger
}

func New(specDB *sql.DB, locker lock.Locker) *Store {
	if locker == nil {
		locker = lock.NewNoOpLocker()
	}
	return &Store{
		db:     specDB,
		locker: locker,
		logger: slog.Default(),
	}
}

// WithLogger returns a copy of s that logs to logger.
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	c := *s
	c.logger = logger
	return &c
}

// Put serializes spec and stores it under its digest. Storing the same
// document twice is a no-op apart from refreshing reference.
func (s *Store) Put(ctx context.Context, reference string, spec *imagespec.ImageSpec) (digest.Digest, error) {
	doc, err := imagespec.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("serialize image config: %w", err)
	}
	return s.put(ctx, reference, doc, spec)
}

// PutRaw stores raw exactly as given, keyed by its digest, after checking
// that it decodes. Keys the model does not know are kept in the stored bytes.
func (s *Store) PutRaw(ctx context.Context, reference string, raw []byte) (digest.Digest, error) {
	spec, err := imagespec.Unmarshal(raw)
	if err != nil {
		return "", fmt.Errorf("validate image config: %w", err)
	}
	return s.put(ctx, reference, raw, spec)
}

func (s *Store) put(ctx context.Context, reference string, doc []byte, spec *imagespec.ImageSpec) (digest.Digest, error) {
	dgst := digest.FromBytes(doc)

	id, err := utils.NewUUID7()
	if err != nil {
		return "", fmt.Errorf("error generating record id: %w", err)
	}

	record := &models.ImageConfig{
		ID:           id,
		Digest:       dgst.String(),
		Reference:    reference,
		Architecture: spec.Architecture,
		OS:           spec.OS,
		Document:     doc,
	}
	err = lock.WithLock(ctx, s.locker, dgst, func() error {
		return models.UpsertImageConfig(ctx, s.db, record)
	})
	if err != nil {
		return "", fmt.Errorf("store image config: %w", err)
	}

	s.logger.DebugContext(ctx, "image config stored", "digest", dgst.String(), "reference", reference, "id", record.ID)
	return dgst, nil
}

// Raw returns the stored document bytes.
func (s *Store) Raw(ctx context.Context, dgst digest.Digest) ([]byte, error) {
	record, err := s.get(ctx, dgst)
	if err != nil {
		return nil, err
	}
	return record.Document, nil
}

// Get decodes the stored document. A document that no longer decodes is
// reported with its *imagespec.SchemaViolation.
func (s *Store) Get(ctx context.Context, dgst digest.Digest) (*imagespec.ImageSpec, error) {
	record, err := s.get(ctx, dgst)
	if err != nil {
		return nil, err
	}

	spec, err := imagespec.Unmarshal(record.Document)
	if err != nil {
		return nil, fmt.Errorf("decode stored config %s: %w", dgst, err)
	}
	return spec, nil
}

func (s *Store) List(ctx context.Context) ([]Entry, error) {
	records, err := models.ListImageConfigs(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list image configs: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{
			ID:           r.ID,
			Digest:       digest.Digest(r.Digest),
			Reference:    r.Reference,
			Architecture: r.Architecture,
			OS:           r.OS,
		})
	}
	return entries, nil
}

func (s *Store) Delete(ctx context.Context, dgst digest.Digest) error {
	if err := dgst.Validate(); err != nil {
		return fmt.Errorf("invalid digest %q: %w", dgst, err)
	}

	err := lock.WithLock(ctx, s.locker, dgst, func() error {
		return models.DeleteImageConfig(ctx, s.db, dgst.String())
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", dgst, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete image config: %w", err)
	}

	s.logger.DebugContext(ctx, "image config deleted", "digest", dgst.String())
	return nil
}

func (s *Store) get(ctx context.Context, dgst digest.Digest) (*models.ImageConfig, error) {
	if err := dgst.Validate(); err != nil {
		return nil, fmt.Errorf("invalid digest %q: %w", dgst, err)
	}

	record, err := models.GetImageConfigByDigest(ctx, s.db, dgst.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", dgst, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load image config: %w", err)
	}
	return record, nil
}
