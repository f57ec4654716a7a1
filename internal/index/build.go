package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"legalrag/internal/domain"
)

// entryNamespace seeds deterministic entry IDs.
var entryNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("legalrag/article"))

// BuildOptions controls index building.
type BuildOptions struct {
	// Concurrency bounds in-flight embedding requests. Defaults to 4.
	Concurrency int
	// RequestsPerSecond throttles embedding requests. Zero means unlimited.
	RequestsPerSecond float64
	// BatchSize is the number of texts per EmbedBatch call. Defaults to 32.
	BatchSize   int
	SourceLabel string
	Logger      *slog.Logger
}

// Build embeds every record and returns an in-memory index. Any embedding
// failure aborts the build; the caller persists only a complete index.
func Build(ctx context.Context, records []domain.ArticleRecord, emb domain.Embedder, opts BuildOptions) (*Index, error) {
	if emb == nil {
		return nil, domain.E(domain.KindInvalidInput, "index build", "embedder is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(records) == 0 {
		return Empty(emb.ModelID(), opts.SourceLabel), nil
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	batchSize := opts.BatchSize
	batcher, canBatch := emb.(domain.BatchEmbedder)
	if !canBatch {
		batchSize = 1
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	start := time.Now()
	vectors := make([][]float32, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for lo := 0; lo < len(records); lo += batchSize {
		hi := min(lo+batchSize, len(records))
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			texts := make([]string, 0, hi-lo)
			for _, r := range records[lo:hi] {
				texts = append(texts, r.EmbeddingText)
			}
			var vecs [][]float32
			if canBatch {
				var err error
				if vecs, err = batcher.EmbedBatch(gctx, texts); err != nil {
					return err
				}
			} else {
				v, err := emb.Embed(gctx, texts[0])
				if err != nil {
					return err
				}
				vecs = [][]float32{v}
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs))
			}
			copy(vectors[lo:hi], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, embeddingFailure(err)
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, embeddingFailure(fmt.Errorf("embedder returned an empty vector"))
	}
	entries := make([]Entry, len(records))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, embeddingFailure(fmt.Errorf("record %d: embedding dim %d, want %d", i, len(v), dim))
		}
		entries[i] = Entry{
			ID:     EntryID(i, records[i]),
			Record: records[i],
			Vector: NormalizeL2(v),
		}
	}

	ix, err := newIndex(Manifest{
		FormatVersion: FormatVersion,
		ModelID:       emb.ModelID(),
		Dim:           dim,
		Count:         len(entries),
		SourceLabel:   opts.SourceLabel,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		VectorFile:    defaultVectorFile,
		RecordsFile:   defaultRecordsFile,
	}, entries)
	if err != nil {
		return nil, err
	}
	logger.Info("index built",
		"records", len(entries),
		"dim", dim,
		"model", emb.ModelID(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return ix, nil
}

// EntryID derives a stable identifier from the record position and content.
func EntryID(pos int, rec domain.ArticleRecord) string {
	name := fmt.Sprintf("%d\x00%s\x00%s", pos, rec.Number, rec.EmbeddingText)
	return uuid.NewSHA1(entryNamespace, []byte(name)).String()
}

func embeddingFailure(err error) error {
	if domain.KindOf(err) == domain.KindEmbeddingService {
		return err
	}
	return domain.E(domain.KindEmbeddingService, "index build", "", err)
}
