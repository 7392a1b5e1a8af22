package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"review_sentiment/internal/adapters/observability"
	"review_sentiment/internal/app"
	"review_sentiment/internal/domain"
	"review_sentiment/internal/model"
	"review_sentiment/internal/shared"
	"review_sentiment/internal/storage/files"
)

type options struct {
	outDir    string
	workers   int
	start     string
	end       string
	sentiment string
	report    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options
	root := &cobra.Command{
		Use:           "classify [file.csv...]",
		Short:         "Classify review CSV files offline",
		Long:          "Labels every review in each CSV with the local model and writes <name>_predicted.csv next to --out-dir.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.Load()
			if err != nil {
				return err
			}
			log.Logger = observability.NewLogger(cfg.AppEnv)
			if !cmd.Flags().Changed("workers") {
				o.workers = cfg.Workers
			}
			m, err := model.Load(cmd.Context(), files.New(cfg.ArtifactDir), model.Names{
				Vectorizer: cfg.VectorizerName,
				Classifier: cfg.ClassifierName,
				Encoder:    cfg.EncoderName,
			})
			if err != nil {
				log.Error().Err(err).Str("dir", cfg.ArtifactDir).Msg("failed to load model artifacts")
				return err
			}
			p := app.NewPipelineService(m, nil, 0, cfg.Location())
			return runClassify(cmd.Context(), p, o, args)
		},
	}
	f := root.Flags()
	f.StringVar(&o.outDir, "out-dir", ".", "directory for the predicted CSV files")
	f.IntVar(&o.workers, "workers", 4, "files classified concurrently")
	f.StringVar(&o.start, "start", "", "keep rows on or after this date (YYYY-MM-DD)")
	f.StringVar(&o.end, "end", "", "keep rows on or before this date (YYYY-MM-DD)")
	f.StringVar(&o.sentiment, "sentiment", "all", "all | positive | negative")
	f.BoolVar(&o.report, "report", false, "log the classification report when true_sentiment is present")

	root.AddCommand(newPublishCmd())
	return root
}

func (o options) filter(loc *time.Location) (domain.BatchFilter, error) {
	var bf domain.BatchFilter
	var err error
	if bf.Sentiment, err = domain.ParseSentimentFilter(o.sentiment); err != nil {
		return bf, err
	}
	for _, d := range []struct {
		flag string
		val  string
		dst  **time.Time
	}{{"--start", o.start, &bf.Start}, {"--end", o.end, &bf.End}} {
		if d.val == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", d.val, loc)
		if err != nil {
			return bf, fmt.Errorf("%s must be YYYY-MM-DD", d.flag)
		}
		*d.dst = &t
	}
	return bf, nil
}

func runClassify(ctx context.Context, p *app.PipelineService, o options, paths []string) error {
	bf, err := o.filter(p.Location())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return err
	}
	if o.workers <= 0 {
		o.workers = 1
	}

	log.Info().Int("files", len(paths)).Int("workers", o.workers).Str("out", o.outDir).Msg("classify starting")

	sem := semaphore.NewWeighted(int64(o.workers))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, path := range paths {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := classifyFile(ctx, p, bf, path, o.outDir, o.report)
			if err != nil {
				log.Warn().Str("file", path).Err(err).Msg("classify failed")
				mu.Lock()
				failed = append(failed, path)
				mu.Unlock()
				return
			}
			log.Info().Str("file", path).Str("out", out).Msg("classify ok")
		}(path)
	}
	wg.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %s", len(failed), len(paths), strings.Join(failed, ", "))
	}
	log.Info().Msg("classify completed")
	return nil
}

// classifyFile labels one CSV and writes the filtered rows to <out>/<name>_predicted.csv.
func classifyFile(ctx context.Context, p *app.PipelineService, bf domain.BatchFilter, path, outDir string, report bool) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	b, err := p.RunBatch(ctx, in)
	if err != nil {
		return "", fmt.Errorf("error while reading file: %w", err)
	}
	rep, err := p.Report(b, bf)
	if err != nil {
		return "", err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outDir, name+"_predicted.csv")
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if err := app.WriteBatchCSV(out, b.Header, rep.Rows); err != nil {
		_ = out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	ev := log.Info().Str("file", path).Int("total", rep.Total).Int("filtered", rep.Filtered)
	for _, c := range rep.Distribution {
		ev = ev.Str(c.Label, fmt.Sprintf("%d (%.1f%%)", c.Count, c.Percent))
	}
	ev.Msg("distribution")
	if report && rep.Evaluation != nil {
		log.Info().Str("file", path).Float64("accuracy", rep.Evaluation.Accuracy).Msg("evaluation\n" + rep.Evaluation.Summary)
	}
	return outPath, nil
}
