package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"review_sentiment/internal/domain"
)

// Repo is an ArtifactStore backed by the model_artifacts table.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Open(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, getArtifactSQL, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Put stores or replaces an artifact. Used by tooling that publishes exported models.
func (r *Repo) Put(ctx context.Context, name string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, upsertArtifactSQL, name, payload)
	return err
}

func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, CreateTableSQL)
	return err
}
