package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quantmind-br/pagesync-go/internal/domain"
	"github.com/quantmind-br/pagesync-go/internal/utils"
)

// MaxPageSize is the upstream cap on results per request, both for
// paged reads and for children appended in one call.
const MaxPageSize = 100

// maxResponseBytes bounds how much of a response body is read. A full
// page of 100 rich blocks can run past a megabyte, so the cap is sized
// well above anything the API legitimately returns.
const maxResponseBytes = 32 << 20

// Client is a content API client. It follows cursors on paged reads,
// acquires a rate-limiter token before every call, and surfaces
// non-success responses as *domain.APIError without retrying; retry
// policy belongs to the caller.
type Client struct {
	httpClient        *http.Client
	baseURL           string
	token             string
	version           string
	databaseID        string
	syncedProperty    string
	publishedProperty string
	limiter           domain.Limiter
	logger            *utils.Logger
}

// Options contains options for creating a Client
type Options struct {
	BaseURL           string
	Token             string
	Version           string
	DatabaseID        string
	SyncedProperty    string
	PublishedProperty string
	Timeout           time.Duration
	Limiter           domain.Limiter
	Logger            *utils.Logger
	// HTTPClient overrides the default client, for tests
	HTTPClient *http.Client
}

// NewClient creates a new content API client
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("token is required")
	}
	if opts.DatabaseID == "" {
		return nil, fmt.Errorf("database id is required")
	}
	if opts.Limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SyncedProperty == "" {
		opts.SyncedProperty = "Synced"
	}
	if opts.PublishedProperty == "" {
		opts.PublishedProperty = "Published"
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		httpClient:        httpClient,
		baseURL:           opts.BaseURL,
		token:             opts.Token,
		version:           opts.Version,
		databaseID:        opts.DatabaseID,
		syncedProperty:    opts.SyncedProperty,
		publishedProperty: opts.PublishedProperty,
		limiter:           opts.Limiter,
		logger:            logger.WithComponent("notion"),
	}, nil
}

// ListPages returns every published, not-yet-synchronized page of the
// database, newest first, following the cursor until exhausted.
func (c *Client) ListPages(ctx context.Context) ([]domain.Page, error) {
	filter, err := json.Marshal(map[string]any{
		"and": []any{
			newCheckboxFilter(c.publishedProperty, true),
			newCheckboxFilter(c.syncedProperty, false),
		},
	})
	if err != nil {
		return nil, err
	}

	var pages []domain.Page
	cursor := ""
	for {
		req := queryRequest{
			Filter:      filter,
			Sorts:       []sortSpec{{Timestamp: "created_time", Direction: "descending"}},
			PageSize:    MaxPageSize,
			StartCursor: cursor,
		}

		var list pageList
		endpoint := fmt.Sprintf("/databases/%s/query", c.databaseID)
		if err := c.do(ctx, http.MethodPost, endpoint, req, &list); err != nil {
			return nil, err
		}

		for _, p := range list.Results {
			pages = append(pages, p.toDomain(c.syncedProperty))
		}

		if !list.HasMore || list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}

	c.logger.Debug().Int("pages", len(pages)).Msg("Listed eligible pages")
	return pages, nil
}

// ListBlocks returns the full ordered block list of a page, following
// the cursor until exhausted.
func (c *Client) ListBlocks(ctx context.Context, pageID string) ([]domain.Block, error) {
	var blocks []domain.Block
	cursor := ""
	for {
		endpoint := fmt.Sprintf("/blocks/%s/children?page_size=%d", pageID, MaxPageSize)
		if cursor != "" {
			endpoint += "&start_cursor=" + url.QueryEscape(cursor)
		}

		var list blockList
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
			return nil, err
		}

		for _, raw := range list.Results {
			block, err := decodeBlock(raw)
			if err != nil {
				return nil, fmt.Errorf("decode block: %w", err)
			}
			blocks = append(blocks, block)
		}

		if !list.HasMore || list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}

	return blocks, nil
}

// AppendBlocks appends children to a page in one call. The endpoint
// caps children at MaxPageSize per call; chunking is the caller's job.
func (c *Client) AppendBlocks(ctx context.Context, pageID string, children []domain.BlockPayload) error {
	if len(children) == 0 {
		return nil
	}
	if len(children) > MaxPageSize {
		return fmt.Errorf("append of %d children exceeds the limit of %d", len(children), MaxPageSize)
	}
	endpoint := fmt.Sprintf("/blocks/%s/children", pageID)
	return c.do(ctx, http.MethodPatch, endpoint, appendRequest{Children: children}, nil)
}

// DeleteBlock removes one block. A 404 means the block is already gone
// and is treated as success.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	err := c.do(ctx, http.MethodDelete, "/blocks/"+blockID, nil, nil)
	if err != nil && domain.IsNotFound(err) {
		c.logger.Debug().Str("block_id", blockID).Msg("Block already deleted")
		return nil
	}
	return err
}

// MarkSynchronized flips the page's synchronized checkbox.
func (c *Client) MarkSynchronized(ctx context.Context, pageID string) error {
	req := markRequest{
		Properties: map[string]checkboxValue{
			c.syncedProperty: {Checkbox: true},
		},
	}
	return c.do(ctx, http.MethodPatch, "/pages/"+pageID, req, nil)
}

// do acquires a limiter token, issues one request and decodes the
// response into out when non-nil.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewAPIError(endpoint, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.NewAPIError(endpoint, resp.StatusCode, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.NewAPIError(endpoint, resp.StatusCode, string(respBody), nil)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
	}
	return nil
}
