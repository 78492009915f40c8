package rewrite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quantmind-br/pagesync-go/internal/domain"
	"github.com/quantmind-br/pagesync-go/internal/utils"
)

// Rewriter transforms raw blocks into their replayable form. Non-image
// blocks pass through with volatile fields stripped; image blocks are
// mirrored through the processor and rewritten to point at the uploaded
// asset.
type Rewriter struct {
	processor domain.ImageProcessor
	baseURL   string
	// strict makes an exhausted image pipeline an error instead of a
	// placeholder reference
	strict bool
	logger *utils.Logger
}

// Options contains options for creating a Rewriter
type Options struct {
	Processor domain.ImageProcessor
	// BaseURL is the public domain rewritten image references point at
	BaseURL      string
	StrictImages bool
	Logger       *utils.Logger
}

// NewRewriter creates a new block rewriter
func NewRewriter(opts Options) (*Rewriter, error) {
	if opts.Processor == nil {
		return nil, fmt.Errorf("image processor is required")
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("image base url is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Rewriter{
		processor: opts.Processor,
		baseURL:   opts.BaseURL,
		strict:    opts.StrictImages,
		logger:    logger.WithComponent("rewrite"),
	}, nil
}

// Rewrite transforms one block. A nil payload with nil error drops the
// block from the rewritten list; only image blocks without any source
// URL take that path.
func (r *Rewriter) Rewrite(ctx context.Context, block domain.Block) (domain.BlockPayload, error) {
	if block.Type != "image" {
		return block.Sanitized(), nil
	}

	value, err := block.ImageValue()
	if err != nil {
		return nil, fmt.Errorf("decode image block %s: %w", block.ID, err)
	}
	if value == nil || value.SourceURL() == "" {
		// Deliberate data loss: an image block with nothing to mirror
		// cannot be replayed, so it is dropped from the page.
		r.logger.Warn().Err(domain.ErrNoImageSource).Str("block_id", block.ID).Msg("Dropping image block")
		return nil, nil
	}

	sourceURL := value.SourceURL()
	asset, err := r.processor.Process(ctx, sourceURL)
	if err != nil {
		if r.strict {
			return nil, err
		}
		r.logger.Error().
			Err(err).
			Str("block_id", block.ID).
			Str("url", sourceURL).
			Msg("Image processing failed, emitting placeholder reference")
		return r.imagePayload("", 0, 0, value.Caption)
	}

	url := fmt.Sprintf("%s/%s?w=%d&h=%d", r.baseURL, asset.Key, asset.Width, asset.Height)
	return r.imagePayload(url, asset.Width, asset.Height, value.Caption)
}

// imagePayload builds a replayable external image block preserving the
// original caption.
func (r *Rewriter) imagePayload(url string, width, height int, caption json.RawMessage) (domain.BlockPayload, error) {
	value := domain.ImageValue{
		Type:     "external",
		External: &domain.ExternalRef{URL: url},
		Caption:  caption,
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return domain.BlockPayload{
		"type":  json.RawMessage(`"image"`),
		"image": raw,
	}, nil
}
