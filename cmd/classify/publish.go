package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dustin/go-humanize"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"review_sentiment/internal/adapters/observability"
	"review_sentiment/internal/model"
	"review_sentiment/internal/shared"
	"review_sentiment/internal/storage/files"
	mysqlrepo "review_sentiment/internal/storage/mysql"
)

// artifactSink is where publish writes; *mysqlrepo.Repo in production.
type artifactSink interface {
	EnsureSchema(ctx context.Context) error
	Put(ctx context.Context, name string, payload []byte) error
}

func newPublishCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "publish-artifacts",
		Short: "Copy exported model artifacts from a directory into the MySQL artifact table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := shared.Load()
			if err != nil {
				return err
			}
			log.Logger = observability.NewLogger(cfg.AppEnv)
			if dir == "" {
				dir = cfg.ArtifactDir
			}

			db, err := sql.Open("mysql", cfg.MySQLDSN)
			if err != nil {
				return fmt.Errorf("sql.Open: %w", err)
			}
			defer db.Close()
			if err := db.PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("db.Ping: %w", err)
			}

			names := model.Names{Vectorizer: cfg.VectorizerName, Classifier: cfg.ClassifierName, Encoder: cfg.EncoderName}
			return publish(cmd.Context(), files.New(dir), mysqlrepo.New(db), names)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "artifact directory (defaults to ARTIFACT_DIR)")
	return cmd
}

// publish validates the artifacts as a loadable model before copying them.
func publish(ctx context.Context, src *files.Store, dst artifactSink, names model.Names) error {
	m, err := model.Load(ctx, src, names)
	if err != nil {
		return fmt.Errorf("refusing to publish: %w", err)
	}
	if err := dst.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	for _, n := range []string{names.Vectorizer, names.Classifier, names.Encoder} {
		b, err := src.Open(ctx, n)
		if err != nil {
			return err
		}
		if err := dst.Put(ctx, n, b); err != nil {
			return fmt.Errorf("put %s: %w", n, err)
		}
		log.Info().Str("artifact", n).Str("size", humanize.Bytes(uint64(len(b)))).Msg("published")
	}
	log.Info().Str("model", m.ID()).Msg("artifacts published")
	return nil
}
