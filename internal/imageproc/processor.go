package imageproc

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"time"

	// Formats the inspector recognizes
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/cenkalti/backoff/v4"
	"github.com/quantmind-br/pagesync-go/internal/domain"
	"github.com/quantmind-br/pagesync-go/internal/utils"
)

// Processor downloads an image, content-addresses it and uploads it to
// blob storage. The whole download -> inspect -> upload sequence is
// retried as a unit on any failure, with flat spacing between attempts;
// the shared rate limiter does the real throttling.
type Processor struct {
	downloader    domain.Downloader
	store         domain.BlobStore
	index         domain.AssetIndex // optional
	limiter       domain.Limiter
	convertToWebp map[string]bool
	maxAttempts   int
	retryInterval time.Duration
	logger        *utils.Logger
}

// Options contains options for creating a Processor
type Options struct {
	Downloader domain.Downloader
	Store      domain.BlobStore
	// Index is optional; nil disables the skip-upload fast path
	Index         domain.AssetIndex
	Limiter       domain.Limiter
	ConvertToWebp []string
	MaxAttempts   int
	RetryInterval time.Duration
	Logger        *utils.Logger
}

// NewProcessor creates a new image processor
func NewProcessor(opts Options) (*Processor, error) {
	if opts.Downloader == nil {
		return nil, fmt.Errorf("downloader is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if opts.Limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	convert := make(map[string]bool, len(opts.ConvertToWebp))
	for _, f := range opts.ConvertToWebp {
		convert[f] = true
	}

	return &Processor{
		downloader:    opts.Downloader,
		store:         opts.Store,
		index:         opts.Index,
		limiter:       opts.Limiter,
		convertToWebp: convert,
		maxAttempts:   opts.MaxAttempts,
		retryInterval: opts.RetryInterval,
		logger:        logger.WithComponent("imageproc"),
	}, nil
}

// Process runs the download/inspect/upload sequence for a source URL.
// After the retry budget is exhausted the error wraps
// domain.ErrProcessingExhausted.
func (p *Processor) Process(ctx context.Context, sourceURL string) (*domain.ImageAsset, error) {
	var asset *domain.ImageAsset
	attempt := 0
	logger := p.logger.WithURL(sourceURL)

	operation := func() error {
		attempt++
		a, err := p.processOnce(ctx, sourceURL)
		if err != nil {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", p.maxAttempts).
				Msg("Image processing attempt failed")
			return err
		}
		asset = a
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.retryInterval), uint64(p.maxAttempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, b); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after %d attempts: %w", domain.ErrProcessingExhausted, attempt, err)
	}

	return asset, nil
}

// processOnce runs one full attempt of the sequence.
func (p *Processor) processOnce(ctx context.Context, sourceURL string) (*domain.ImageAsset, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	resp, err := p.downloader.Get(ctx, sourceURL)
	if err != nil {
		return nil, domain.NewProcessError(sourceURL, "download", err)
	}

	asset, err := p.inspect(resp.Body)
	if err != nil {
		return nil, domain.NewProcessError(sourceURL, "inspect", err)
	}

	if p.index != nil {
		if _, err := p.index.Lookup(ctx, asset.Hash); err == nil {
			p.logger.Debug().
				Str("hash", asset.Hash).
				Str("key", asset.Key).
				Msg("Asset already uploaded, skipping put")
			return asset, nil
		} else if !errors.Is(err, domain.ErrIndexMiss) {
			p.logger.Warn().Err(err).Str("hash", asset.Hash).Msg("Asset index lookup failed")
		}
	}

	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	if err := p.store.Put(ctx, asset.Key, resp.Body, asset.ContentType); err != nil {
		return nil, domain.NewProcessError(sourceURL, "upload", err)
	}
	asset.Reuploaded = true

	if p.index != nil {
		if err := p.index.Record(ctx, asset.Hash, asset.Key); err != nil {
			p.logger.Warn().Err(err).Str("hash", asset.Hash).Msg("Asset index record failed")
		}
	}

	p.logger.Debug().
		Str("url", sourceURL).
		Str("key", asset.Key).
		Str("format", asset.Format).
		Int("width", asset.Width).
		Int("height", asset.Height).
		Msg("Image mirrored")

	return asset, nil
}

// inspect hashes the bytes, detects format and dimensions and derives
// the storage key. Pure: identical bytes always yield identical keys.
func (p *Processor) inspect(data []byte) (*domain.ImageAsset, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnrecognizedFormat, err)
	}

	ext := format
	contentType := "image/" + format
	if p.convertToWebp[format] {
		ext = "webp"
		contentType = "image/webp"
	}

	return &domain.ImageAsset{
		Hash:        hash,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Key:         hash + "." + ext,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}
