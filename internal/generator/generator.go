package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pixgenie/internal/unsplash"
	"pixgenie/pkg/httputil"
)

const (
	MsgServer  = "Server Error: Unable to generate images. Please try again!"
	MsgNetwork = "Network Error: No response from server. Please try again!"
	MsgClient  = "Client Error: Unable to generate images. Please try again!"
)

type KeywordSource interface {
	Extract(ctx context.Context, content string) ([]string, error)
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]unsplash.Photo, error)
}

// Picker draws a uniform index in [0, n).
type Picker interface {
	IntN(n int) int
}

// Error is a failed generation cycle, tagged with where the failure happened.
type Error struct {
	Kind httputil.Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the text shown to the user for this failure.
func (e *Error) Message() string {
	switch e.Kind {
	case httputil.KindServer:
		return MsgServer
	case httputil.KindNetwork:
		return MsgNetwork
	default:
		return MsgClient
	}
}

// Message returns the user-facing text for any error a cycle can return.
func Message(err error) string {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Message()
	}
	return MsgClient
}

type Generator struct {
	keywords    KeywordSource
	searcher    Searcher
	picker      Picker
	concurrency int
}

type Options struct {
	Keywords    KeywordSource
	Searcher    Searcher
	Picker      Picker
	Concurrency int
}

func New(opts Options) *Generator {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	picker := opts.Picker
	if picker == nil {
		picker = NewPicker(0)
	}
	return &Generator{
		keywords:    opts.Keywords,
		searcher:    opts.Searcher,
		picker:      picker,
		concurrency: concurrency,
	}
}

// Generate runs one cycle: extract keywords, search each one, and keep one
// random photo per keyword in keyword order. Any failure aborts the cycle.
func (g *Generator) Generate(ctx context.Context, content string) ([]unsplash.Photo, error) {
	cycle := uuid.NewString()
	log := slog.With("cycle", cycle)
	start := time.Now()

	log.Info("Extracting keywords...", "length", len(content))
	list, err := g.keywords.Extract(ctx, content)
	if err != nil {
		return nil, classify(log, err)
	}
	log.Info("Extracted keywords", "count", len(list))
	log.Debug("Keywords", "keywords", list)

	candidates, err := g.searchAll(ctx, log, list)
	if err != nil {
		return nil, classify(log, err)
	}

	photos := make([]unsplash.Photo, 0, len(list))
	for i, found := range candidates {
		if len(found) == 0 {
			log.Warn("No photos for keyword, skipping", "keyword", list[i])
			continue
		}
		photos = append(photos, found[g.picker.IntN(len(found))])
	}

	log.Info("Generated images", "count", len(photos), "elapsed", time.Since(start).Round(time.Millisecond))
	return photos, nil
}

func (g *Generator) searchAll(ctx context.Context, log *slog.Logger, list []string) ([][]unsplash.Photo, error) {
	candidates := make([][]unsplash.Photo, len(list))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrency)

	for i, keyword := range list {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			log.Debug("Searching photos", "index", i+1, "total", len(list), "keyword", keyword)
			found, err := g.searcher.Search(groupCtx, keyword)
			if err != nil {
				return fmt.Errorf("search %q: %w", keyword, err)
			}
			candidates[i] = found
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func classify(log *slog.Logger, err error) error {
	genErr := &Error{Kind: httputil.Classify(err), Err: err}
	log.Error("Generation failed", "kind", genErr.Kind, "error", err)
	return genErr
}

type lockedPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPicker returns a goroutine-safe uniform picker. A zero seed draws one
// from the clock.
func NewPicker(seed uint64) Picker {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedPicker{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *lockedPicker) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.IntN(n)
}
