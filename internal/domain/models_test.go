package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitized_StripsExactlyVolatileFields(t *testing.T) {
	block := Block{
		ID:   "b1",
		Type: "paragraph",
		Fields: map[string]json.RawMessage{
			"object":           json.RawMessage(`"block"`),
			"id":               json.RawMessage(`"b1"`),
			"parent":           json.RawMessage(`{"type":"page_id","page_id":"p1"}`),
			"created_time":     json.RawMessage(`"2023-01-01T00:00:00.000Z"`),
			"last_edited_time": json.RawMessage(`"2023-01-02T00:00:00.000Z"`),
			"created_by":       json.RawMessage(`{"id":"u1"}`),
			"last_edited_by":   json.RawMessage(`{"id":"u2"}`),
			"has_children":     json.RawMessage(`false`),
			"archived":         json.RawMessage(`false`),
			"in_trash":         json.RawMessage(`false`),
			"type":             json.RawMessage(`"paragraph"`),
			"paragraph":        json.RawMessage(`{"rich_text":[{"plain_text":"hello"}],"color":"default"}`),
		},
	}

	sanitized := block.Sanitized()

	// Exactly the volatile set is gone
	for _, k := range VolatileBlockFields {
		assert.NotContains(t, sanitized, k)
	}

	// Everything else passes through byte-identical
	assert.Equal(t, block.Fields["type"], sanitized["type"])
	assert.Equal(t, block.Fields["paragraph"], sanitized["paragraph"])
	assert.Len(t, sanitized, 2)

	// The original block is untouched
	assert.Contains(t, block.Fields, "id")
	assert.Len(t, block.Fields, 12)
}

func TestSourceURL_PrefersFileReference(t *testing.T) {
	tests := []struct {
		name  string
		value ImageValue
		want  string
	}{
		{
			name: "file only",
			value: ImageValue{
				Type: "file",
				File: &FileRef{URL: "http://files/img.png"},
			},
			want: "http://files/img.png",
		},
		{
			name: "external only",
			value: ImageValue{
				Type:     "external",
				External: &ExternalRef{URL: "http://cdn/img.png"},
			},
			want: "http://cdn/img.png",
		},
		{
			name: "file preferred over external",
			value: ImageValue{
				File:     &FileRef{URL: "http://files/img.png"},
				External: &ExternalRef{URL: "http://cdn/img.png"},
			},
			want: "http://files/img.png",
		},
		{
			name:  "neither",
			value: ImageValue{Type: "file"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.SourceURL())
		})
	}
}

func TestImageValue(t *testing.T) {
	t.Run("non-image block", func(t *testing.T) {
		block := Block{Type: "paragraph", Fields: map[string]json.RawMessage{}}
		value, err := block.ImageValue()
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("image block with caption", func(t *testing.T) {
		block := Block{
			Type: "image",
			Fields: map[string]json.RawMessage{
				"image": json.RawMessage(`{"type":"file","file":{"url":"http://x/a.png","expiry_time":"2023-01-01T01:00:00.000Z"},"caption":[{"plain_text":"cap"}]}`),
			},
		}
		value, err := block.ImageValue()
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "http://x/a.png", value.SourceURL())
		assert.NotEmpty(t, value.Caption)
	})

	t.Run("image block without payload", func(t *testing.T) {
		block := Block{Type: "image", Fields: map[string]json.RawMessage{}}
		value, err := block.ImageValue()
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("malformed payload", func(t *testing.T) {
		block := Block{
			Type:   "image",
			Fields: map[string]json.RawMessage{"image": json.RawMessage(`not json`)},
		}
		_, err := block.ImageValue()
		assert.Error(t, err)
	})
}

func TestReport(t *testing.T) {
	report := Report{
		Pages: []PageResult{
			{PageID: "p1", Outcome: PageDone},
			{PageID: "p2", Outcome: PageFailed},
			{PageID: "p3", Outcome: PageDone},
		},
	}

	assert.Equal(t, 2, report.Succeeded())
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "p2", failed[0].PageID)
}
