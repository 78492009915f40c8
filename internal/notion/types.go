package notion

import (
	"encoding/json"
	"time"

	"github.com/quantmind-br/pagesync-go/internal/domain"
)

// queryRequest is the body of a database query call
type queryRequest struct {
	Filter      json.RawMessage `json:"filter,omitempty"`
	Sorts       []sortSpec      `json:"sorts,omitempty"`
	PageSize    int             `json:"page_size,omitempty"`
	StartCursor string          `json:"start_cursor,omitempty"`
}

type sortSpec struct {
	Timestamp string `json:"timestamp,omitempty"`
	Property  string `json:"property,omitempty"`
	Direction string `json:"direction"`
}

// checkboxFilter builds a single checkbox equality condition
type checkboxFilter struct {
	Property string `json:"property"`
	Checkbox struct {
		Equals bool `json:"equals"`
	} `json:"checkbox"`
}

func newCheckboxFilter(property string, equals bool) checkboxFilter {
	f := checkboxFilter{Property: property}
	f.Checkbox.Equals = equals
	return f
}

// pageList is the cursor-bearing envelope of a database query response
type pageList struct {
	Results    []pageObject `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor"`
}

// pageObject is the subset of a page record the pipeline reads
type pageObject struct {
	ID          string                     `json:"id"`
	URL         string                     `json:"url"`
	CreatedTime time.Time                  `json:"created_time"`
	Properties  map[string]propertyObject `json:"properties"`
}

type propertyObject struct {
	Type     string      `json:"type"`
	Title    []richText  `json:"title,omitempty"`
	Checkbox *bool       `json:"checkbox,omitempty"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

// toDomain converts a wire page into the domain model
func (p pageObject) toDomain(syncedProperty string) domain.Page {
	page := domain.Page{
		ID:          p.ID,
		URL:         p.URL,
		CreatedTime: p.CreatedTime,
	}
	for _, prop := range p.Properties {
		if prop.Type == "title" {
			for _, rt := range prop.Title {
				page.Title += rt.PlainText
			}
			break
		}
	}
	if prop, ok := p.Properties[syncedProperty]; ok && prop.Checkbox != nil {
		page.Synced = *prop.Checkbox
	}
	return page
}

// blockList is the cursor-bearing envelope of a block-children response
type blockList struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// decodeBlock lifts the identifying keys out of a raw block object while
// keeping the object itself intact for pass-through rewriting.
func decodeBlock(raw json.RawMessage) (domain.Block, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Block{}, err
	}
	block := domain.Block{Fields: fields}
	if idRaw, ok := fields["id"]; ok {
		_ = json.Unmarshal(idRaw, &block.ID)
	}
	if typeRaw, ok := fields["type"]; ok {
		_ = json.Unmarshal(typeRaw, &block.Type)
	}
	return block, nil
}

// appendRequest is the body of a block-children append call
type appendRequest struct {
	Children []domain.BlockPayload `json:"children"`
}

// markRequest flips the synchronized checkbox on a page
type markRequest struct {
	Properties map[string]checkboxValue `json:"properties"`
}

type checkboxValue struct {
	Checkbox bool `json:"checkbox"`
}
