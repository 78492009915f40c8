package domain

import (
	"encoding/json"
	"time"
)

// Page represents one document in the content database that is eligible
// for (or has completed) image mirroring.
type Page struct {
	ID          string
	Title       string // best-effort, taken from the title property
	URL         string
	CreatedTime time.Time
	Synced      bool
}

// Block is one structural unit of a page's content tree. The API returns
// blocks as open-ended JSON objects, so the full object is kept verbatim
// in Fields and only the keys the pipeline needs are lifted out.
type Block struct {
	ID     string
	Type   string
	Fields map[string]json.RawMessage
}

// VolatileBlockFields are server-managed keys the write endpoints reject
// or ignore. They are stripped before a block is replayed back.
var VolatileBlockFields = []string{
	"object",
	"id",
	"parent",
	"created_time",
	"last_edited_time",
	"created_by",
	"last_edited_by",
	"has_children",
	"archived",
	"in_trash",
}

// BlockPayload is the wire shape accepted by the block-children append
// endpoint: a block object minus its volatile fields.
type BlockPayload map[string]json.RawMessage

// Sanitized returns a copy of the block's raw object with every volatile
// field removed. All other keys pass through untouched.
func (b Block) Sanitized() BlockPayload {
	out := make(BlockPayload, len(b.Fields))
	for k, v := range b.Fields {
		out[k] = v
	}
	for _, k := range VolatileBlockFields {
		delete(out, k)
	}
	return out
}

// ImageValue is the decoded payload of an image block.
type ImageValue struct {
	Type     string          `json:"type"`
	File     *FileRef        `json:"file,omitempty"`
	External *ExternalRef    `json:"external,omitempty"`
	Caption  json.RawMessage `json:"caption,omitempty"`
}

// FileRef is an API-hosted file reference with an expiring URL.
type FileRef struct {
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"`
}

// ExternalRef is a plain external URL.
type ExternalRef struct {
	URL string `json:"url"`
}

// SourceURL resolves the downloadable URL for the image, preferring the
// hosted file reference over the external one. Empty when the block
// carries neither.
func (v *ImageValue) SourceURL() string {
	if v.File != nil && v.File.URL != "" {
		return v.File.URL
	}
	if v.External != nil && v.External.URL != "" {
		return v.External.URL
	}
	return ""
}

// ImageValue decodes the image payload of the block. Returns nil when the
// block is not an image or carries no image payload.
func (b Block) ImageValue() (*ImageValue, error) {
	if b.Type != "image" {
		return nil, nil
	}
	raw, ok := b.Fields["image"]
	if !ok {
		return nil, nil
	}
	var v ImageValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ImageAsset describes one mirrored image after download and inspection.
// Key is a pure function of the raw bytes and the webp conversion set, so
// identical bytes always land under the same storage key.
type ImageAsset struct {
	Hash        string // lowercase hex sha256 of the raw bytes
	Format      string // detected format: png, jpeg, gif, webp
	Width       int
	Height      int
	Key         string // "{hash}.{ext}"
	ContentType string
	Size        int64
	Reuploaded  bool // false when the asset index short-circuited the upload
}

// PageOutcome is the terminal state of one page within a run.
type PageOutcome string

const (
	PageDone   PageOutcome = "done"
	PageFailed PageOutcome = "failed"
)

// PageResult records the outcome of syncing a single page.
type PageResult struct {
	PageID   string
	Title    string
	Outcome  PageOutcome
	Blocks   int // original block count
	Written  int // rewritten blocks appended
	Images   int // images mirrored
	Degraded int // images that fell back to a placeholder reference
	Err      error
	Duration time.Duration
}

// Report summarizes one orchestration run. A run never fails as a whole;
// per-page outcomes are all it has to say.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      []PageResult
}

// Failed returns the results of pages that did not reach done.
func (r *Report) Failed() []PageResult {
	var out []PageResult
	for _, p := range r.Pages {
		if p.Outcome == PageFailed {
			out = append(out, p)
		}
	}
	return out
}

// Succeeded returns the number of pages that reached done.
func (r *Report) Succeeded() int {
	n := 0
	for _, p := range r.Pages {
		if p.Outcome == PageDone {
			n++
		}
	}
	return n
}
