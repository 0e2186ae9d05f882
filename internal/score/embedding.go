package score

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/label"
)

// Embedder turns texts into vectors
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Preparer is implemented by strategies that need a per-document warm-up
// before Compare can be called synchronously.
type Preparer interface {
	Prepare(ctx context.Context, texts []string) error
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder; model defaults to text-embedding-3-small
func NewOpenAIEmbedder(apiKey, baseURL, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for embeddings")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	m := openai.SmallEmbedding3
	if model != "" {
		m = openai.EmbeddingModel(model)
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
	}, nil
}

// embedBatchSize keeps requests under the endpoint's input limit
const embedBatchSize = 512

// Embed returns one vector per input text, in input order. Large inputs are
// split into batches sent concurrently.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(texts); start += embedBatchSize {
		start := start
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			return e.embedBatch(gctx, texts[start:end], out[start:end])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string, out [][]float32) error {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return fmt.Errorf("embeddings: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return fmt.Errorf("embeddings: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return nil
}

// Embedding scores semantic similarity as scaled cosine similarity.
// Texts that were not prepared fall back to the token-set strategy.
type Embedding struct {
	embedder Embedder
	fallback Similarity
	mu       sync.RWMutex
	vectors  map[string][]float32
}

// NewEmbedding creates the embedding strategy
func NewEmbedding(embedder Embedder) *Embedding {
	return &Embedding{
		embedder: embedder,
		fallback: NewTokenSet(),
		vectors:  make(map[string][]float32),
	}
}

// Name returns the strategy name
func (e *Embedding) Name() string {
	return "embedding"
}

// Prepare embeds the canonical titles and any texts not seen before
func (e *Embedding) Prepare(ctx context.Context, texts []string) error {
	all := make([]string, 0, len(texts)+canon.ItemCount)
	for _, item := range canon.Items() {
		all = append(all, item.Title)
	}
	all = append(all, texts...)

	seen := make(map[string]bool)
	var missing []string
	e.mu.RLock()
	for _, t := range all {
		key := embeddingKey(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := e.vectors[key]; !ok {
			missing = append(missing, key)
		}
	}
	e.mu.RUnlock()

	if len(missing) == 0 {
		return nil
	}

	vecs, err := e.embedder.Embed(ctx, missing)
	if err != nil {
		return err
	}

	e.mu.Lock()
	for i, key := range missing {
		e.vectors[key] = vecs[i]
	}
	e.mu.Unlock()
	return nil
}

// Compare returns cosine similarity scaled to 0-100
func (e *Embedding) Compare(a, b string) float64 {
	e.mu.RLock()
	va, okA := e.vectors[embeddingKey(a)]
	vb, okB := e.vectors[embeddingKey(b)]
	e.mu.RUnlock()

	if !okA || !okB {
		return e.fallback.Compare(a, b)
	}

	sim := cosine(va, vb) * 100
	if sim < 0 {
		return 0
	}
	if sim > 100 {
		return 100
	}
	return sim
}

func embeddingKey(text string) string {
	return strings.ToLower(label.Normalize(text))
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
