package domain

import (
	"context"
	"net/http"
)

// ContentAPI defines the operations the sync pipeline needs from the
// content service. Every call acquires a rate-limiter token before
// touching the wire.
type ContentAPI interface {
	// ListPages returns every published, not-yet-synchronized page of the
	// configured database, newest first
	ListPages(ctx context.Context) ([]Page, error)
	// ListBlocks returns the full ordered block list of a page
	ListBlocks(ctx context.Context, pageID string) ([]Block, error)
	// AppendBlocks appends up to 100 children to a page in one call
	AppendBlocks(ctx context.Context, pageID string, children []BlockPayload) error
	// DeleteBlock removes one block; a missing block is not an error
	DeleteBlock(ctx context.Context, blockID string) error
	// MarkSynchronized flips the page's synchronized checkbox
	MarkSynchronized(ctx context.Context, pageID string) error
}

// BlobStore defines the durable object store mirrored images land in.
type BlobStore interface {
	// Put stores raw bytes under a key with the given content type
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// ImageProcessor downloads, hashes, inspects and uploads one image.
type ImageProcessor interface {
	// Process runs the download/inspect/upload sequence for a source URL
	Process(ctx context.Context, sourceURL string) (*ImageAsset, error)
}

// Rewriter transforms one raw block into its replayable form. A nil
// payload with nil error means the block is dropped from the page.
type Rewriter interface {
	Rewrite(ctx context.Context, block Block) (BlockPayload, error)
}

// Limiter is the shared token gate bounding outbound request rate.
type Limiter interface {
	// Acquire blocks until a token is available. It only fails when the
	// context is cancelled.
	Acquire(ctx context.Context) error
}

// Downloader fetches raw bytes over HTTP.
type Downloader interface {
	// Get fetches the URL and returns the response
	Get(ctx context.Context, url string) (*Response, error)
	// Close releases client resources
	Close() error
}

// Response represents a downloaded HTTP response
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
}

// AssetIndex remembers which content hashes have already been uploaded,
// so re-runs can skip redundant puts. Purely an optimization: the
// content-addressed key makes re-uploads idempotent anyway.
type AssetIndex interface {
	// Lookup returns the storage key recorded for a hash, or ErrIndexMiss
	Lookup(ctx context.Context, hash string) (string, error)
	// Record stores the hash -> storage key mapping
	Record(ctx context.Context, hash, key string) error
	// Close releases index resources
	Close() error
}
