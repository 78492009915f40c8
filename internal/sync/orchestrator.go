package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/quantmind-br/pagesync-go/internal/domain"
	"github.com/quantmind-br/pagesync-go/internal/notion"
	"github.com/quantmind-br/pagesync-go/internal/utils"
)

// Orchestrator drives one synchronization run: it lists eligible pages
// and rewrites each page's block list in place. Pages run concurrently,
// bounded only by the shared rate limiter; one page's failure never
// touches its siblings.
type Orchestrator struct {
	api      domain.ContentAPI
	rewriter domain.Rewriter
	// strictDeletes makes a failed block delete fail the page. Appending
	// after a failed delete risks duplicated content, so this defaults
	// on.
	strictDeletes bool
	logger        *utils.Logger
}

// Options contains options for creating an Orchestrator
type Options struct {
	API           domain.ContentAPI
	Rewriter      domain.Rewriter
	StrictDeletes bool
	Logger        *utils.Logger
}

// NewOrchestrator creates a new sync orchestrator
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("content api is required")
	}
	if opts.Rewriter == nil {
		return nil, fmt.Errorf("rewriter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Orchestrator{
		api:           opts.API,
		rewriter:      opts.Rewriter,
		strictDeletes: opts.StrictDeletes,
		logger:        logger.WithComponent("sync"),
	}, nil
}

// Run executes one synchronization pass. It errors only when the page
// listing itself fails; per-page failures land in the report.
func (o *Orchestrator) Run(ctx context.Context) (*domain.Report, error) {
	report := &domain.Report{StartedAt: time.Now()}

	pages, err := o.api.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	o.logger.Info().Int("pages", len(pages)).Msg("Starting sync run")

	if len(pages) == 0 {
		report.FinishedAt = time.Now()
		return report, nil
	}

	results := make([]domain.PageResult, len(pages))
	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		go func(i int, page domain.Page) {
			defer wg.Done()
			results[i] = o.syncPage(ctx, page)
		}(i, page)
	}
	wg.Wait()

	report.Pages = results
	report.FinishedAt = time.Now()

	o.logger.Info().
		Int("total", len(results)).
		Int("done", report.Succeeded()).
		Int("failed", len(report.Failed())).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Sync run completed")

	return report, nil
}

// syncPage runs the Fetching -> Rewriting -> Replacing -> Marking sequence
// for one page. Every failure is absorbed here and turned into a failed
// result.
func (o *Orchestrator) syncPage(ctx context.Context, page domain.Page) (result domain.PageResult) {
	start := time.Now()
	logger := o.logger.WithPage(page.ID)
	result = domain.PageResult{
		PageID:  page.ID,
		Title:   page.Title,
		Outcome: domain.PageDone,
	}

	defer func() {
		if r := recover(); r != nil {
			result.Outcome = domain.PageFailed
			result.Err = fmt.Errorf("panic: %v", r)
		}
		result.Duration = time.Since(start)
		if result.Err != nil {
			logger.Error().Err(result.Err).Dur("duration", result.Duration).Msg("Page sync failed")
		} else {
			logger.Info().
				Int("blocks", result.Blocks).
				Int("written", result.Written).
				Int("images", result.Images).
				Int("degraded", result.Degraded).
				Dur("duration", result.Duration).
				Msg("Page synchronized")
		}
	}()

	fail := func(stage string, err error) domain.PageResult {
		result.Outcome = domain.PageFailed
		result.Err = domain.NewPageSyncError(page.ID, stage, err)
		return result
	}

	// Fetching
	blocks, err := o.api.ListBlocks(ctx, page.ID)
	if err != nil {
		return fail("fetching", err)
	}
	result.Blocks = len(blocks)

	// Rewriting: images within the page overlap; indexed results keep
	// the original block order.
	payloads := make([]domain.BlockPayload, len(blocks))
	indices := make([]int, len(blocks))
	for i := range blocks {
		indices[i] = i
	}
	errs := utils.ParallelForEach(ctx, indices, len(indices), func(ctx context.Context, i int) error {
		payload, err := o.rewriter.Rewrite(ctx, blocks[i])
		if err != nil {
			return err
		}
		payloads[i] = payload
		return nil
	})
	if err := utils.FirstError(errs); err != nil {
		return fail("rewriting", err)
	}

	var rewritten []domain.BlockPayload
	for i, payload := range payloads {
		if payload == nil {
			continue
		}
		rewritten = append(rewritten, payload)
		if blocks[i].Type == "image" {
			result.Images++
			if isPlaceholderImage(payload) {
				result.Degraded++
			}
		}
	}

	// Replacing: all deletes must land before any append, or the
	// position-keyed children list ends up duplicated or gapped.
	deleteErrs := utils.ParallelForEach(ctx, blocks, len(blocks), func(ctx context.Context, b domain.Block) error {
		return o.api.DeleteBlock(ctx, b.ID)
	})
	if err := utils.FirstError(deleteErrs); err != nil {
		if o.strictDeletes {
			return fail("replacing", err)
		}
		logger.Warn().Err(err).Msg("Block delete failed, continuing")
	}

	for _, chunk := range chunkPayloads(rewritten, notion.MaxPageSize) {
		if err := o.api.AppendBlocks(ctx, page.ID, chunk); err != nil {
			return fail("replacing", err)
		}
	}
	result.Written = len(rewritten)

	// Marking
	if err := o.api.MarkSynchronized(ctx, page.ID); err != nil {
		return fail("marking", err)
	}

	return result
}

// chunkPayloads splits the rewritten list into append-sized groups,
// preserving order.
func chunkPayloads(payloads []domain.BlockPayload, size int) [][]domain.BlockPayload {
	var chunks [][]domain.BlockPayload
	for start := 0; start < len(payloads); start += size {
		end := start + size
		if end > len(payloads) {
			end = len(payloads)
		}
		chunks = append(chunks, payloads[start:end])
	}
	return chunks
}

// isPlaceholderImage reports whether a rewritten image payload carries
// the empty reference emitted when processing was exhausted.
func isPlaceholderImage(payload domain.BlockPayload) bool {
	raw, ok := payload["image"]
	if !ok {
		return false
	}
	var value domain.ImageValue
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}
	return value.External != nil && value.External.URL == ""
}
