// Package batch runs the CFDI parser over a set of named documents.
//
// Each document is parsed independently, so the work is spread over a
// bounded number of goroutines. Results come back in input order and a
// failing document only produces a failed Result; it never stops the batch.
package batch

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gastos/internal/cfdi"
	"gastos/pkg/models"
)

// DefaultWorkers is used when a non-positive worker count is requested.
const DefaultWorkers = 8

// ParseFunc turns one document into a record.
type ParseFunc func(fileName string, r io.Reader) (*models.Invoice, error)

// Result is the outcome for one source.
type Result struct {
	Index    int // position in the input
	FileName string
	Invoice  *models.Invoice
	Err      error
}

// Failed reports whether the source produced no record.
func (r Result) Failed() bool {
	return r.Err != nil
}

// ProgressFunc is called once per finished source. Calls are serialized.
type ProgressFunc func(done, total int, result Result)

// Processor parses batches of CFDI documents.
type Processor struct {
	workers  int
	parse    ParseFunc
	progress ProgressFunc
	log      zerolog.Logger
}

// NewProcessor creates a processor running at most workers parses at once.
func NewProcessor(workers int, log zerolog.Logger) *Processor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Processor{
		workers: workers,
		parse:   cfdi.Parse,
		log:     log,
	}
}

// WithProgress registers a callback invoked after each source finishes.
func (p *Processor) WithProgress(fn ProgressFunc) *Processor {
	p.progress = fn
	return p
}

// Process parses every source and returns one Result per source, in input
// order. Sources not started before ctx is done fail with the context error.
func (p *Processor) Process(ctx context.Context, sources []Source) []Result {
	results := make([]Result, len(sources))

	p.log.Info().
		Int("files", len(sources)).
		Int("workers", p.workers).
		Msg("Starting batch parse")

	var (
		mu   sync.Mutex
		done int
	)

	// Plain group, not WithContext: one failure must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, src := range sources {
		g.Go(func() error {
			result := p.processOne(ctx, src)
			result.Index = i
			results[i] = result

			if p.progress != nil {
				mu.Lock()
				done++
				p.progress(done, len(sources), result)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}

	p.log.Info().
		Int("files", len(sources)).
		Int("parsed", len(sources)-failed).
		Int("failed", failed).
		Msg("Batch parse completed")

	return results
}

func (p *Processor) processOne(ctx context.Context, src Source) Result {
	result := Result{FileName: src.Name}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	rc, err := src.Open()
	if err != nil {
		result.Err = fmt.Errorf("failed to open %s: %w", src.Name, err)
		p.log.Warn().Err(err).Str("file", src.Name).Msg("Could not open invoice")
		return result
	}
	defer rc.Close()

	inv, err := p.parse(src.Name, rc)
	if err != nil {
		result.Err = err
		p.log.Warn().Err(err).Str("file", src.Name).Msg("Invoice skipped")
		return result
	}

	if inv.VATInferred {
		p.log.Warn().
			Str("file", src.Name).
			Str("vat", inv.VAT.StringFixed(2)).
			Msg("No itemized taxes, VAT inferred from Total - SubTotal")
	}

	p.log.Debug().
		Str("file", src.Name).
		Str("uuid", inv.UniqueID).
		Str("total", inv.Total.StringFixed(2)).
		Msg("Invoice parsed")

	result.Invoice = inv
	return result
}
