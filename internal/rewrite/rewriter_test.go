package rewrite

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/quantmind-br/pagesync-go/internal/domain"
	"github.com/quantmind-br/pagesync-go/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestRewriter(t *testing.T, processor domain.ImageProcessor, strict bool) *Rewriter {
	t.Helper()
	r, err := NewRewriter(Options{
		Processor:    processor,
		BaseURL:      "https://img.example.com",
		StrictImages: strict,
	})
	require.NoError(t, err)
	return r
}

func rawBlock(t *testing.T, id, blockType string, fields map[string]any) domain.Block {
	t.Helper()
	payload := make(domain.BlockPayload, len(fields))
	for k, v := range fields {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		payload[k] = raw
	}
	return domain.Block{ID: id, Type: blockType, Fields: payload}
}

func TestNewRewriter_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	processor := mocks.NewMockImageProcessor(ctrl)

	_, err := NewRewriter(Options{BaseURL: "https://img.example.com"})
	assert.Error(t, err)

	_, err = NewRewriter(Options{Processor: processor})
	assert.Error(t, err)
}

func TestRewrite_NonImagePassthrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := newTestRewriter(t, mocks.NewMockImageProcessor(ctrl), false)

	block := rawBlock(t, "b1", "paragraph", map[string]any{
		"id":        "b1",
		"type":      "paragraph",
		"paragraph": map[string]any{"rich_text": []any{}},
		"archived":  false,
	})

	payload, err := r.Rewrite(context.Background(), block)
	require.NoError(t, err)
	require.NotNil(t, payload)

	assert.Contains(t, payload, "type")
	assert.Contains(t, payload, "paragraph")
	assert.NotContains(t, payload, "id")
	assert.NotContains(t, payload, "archived")
}

func TestRewrite_ImageBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	processor := mocks.NewMockImageProcessor(ctrl)
	processor.EXPECT().
		Process(gomock.Any(), "https://files.example.com/raw.png").
		Return(&domain.ImageAsset{
			Hash:   "abc123",
			Key:    "abc123.webp",
			Width:  640,
			Height: 480,
		}, nil)

	r := newTestRewriter(t, processor, false)

	block := rawBlock(t, "b2", "image", map[string]any{
		"type": "image",
		"image": map[string]any{
			"type":    "file",
			"file":    map[string]any{"url": "https://files.example.com/raw.png"},
			"caption": []any{map[string]any{"plain_text": "a caption"}},
		},
	})

	payload, err := r.Rewrite(context.Background(), block)
	require.NoError(t, err)
	require.NotNil(t, payload)

	var value domain.ImageValue
	require.NoError(t, json.Unmarshal(payload["image"], &value))
	assert.Equal(t, "external", value.Type)
	require.NotNil(t, value.External)
	assert.Equal(t, "https://img.example.com/abc123.webp?w=640&h=480", value.External.URL)
	assert.NotEmpty(t, value.Caption)
}

func TestRewrite_ImageWithoutSourceIsDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := newTestRewriter(t, mocks.NewMockImageProcessor(ctrl), false)

	block := rawBlock(t, "b3", "image", map[string]any{
		"type":  "image",
		"image": map[string]any{"type": "file"},
	})

	payload, err := r.Rewrite(context.Background(), block)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestRewrite_LenientPlaceholder(t *testing.T) {
	ctrl := gomock.NewController(t)
	processor := mocks.NewMockImageProcessor(ctrl)
	processor.EXPECT().
		Process(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("pipeline broke"))

	r := newTestRewriter(t, processor, false)

	block := rawBlock(t, "b4", "image", map[string]any{
		"type": "image",
		"image": map[string]any{
			"type":     "external",
			"external": map[string]any{"url": "https://cdn.example.com/x.jpg"},
		},
	})

	payload, err := r.Rewrite(context.Background(), block)
	require.NoError(t, err)
	require.NotNil(t, payload)

	var value domain.ImageValue
	require.NoError(t, json.Unmarshal(payload["image"], &value))
	require.NotNil(t, value.External)
	assert.Empty(t, value.External.URL)
}

func TestRewrite_StrictSurfacesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	processor := mocks.NewMockImageProcessor(ctrl)
	wantErr := errors.New("pipeline broke")
	processor.EXPECT().
		Process(gomock.Any(), gomock.Any()).
		Return(nil, wantErr)

	r := newTestRewriter(t, processor, true)

	block := rawBlock(t, "b5", "image", map[string]any{
		"type": "image",
		"image": map[string]any{
			"type":     "external",
			"external": map[string]any{"url": "https://cdn.example.com/x.jpg"},
		},
	})

	_, err := r.Rewrite(context.Background(), block)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestRewrite_FileURLPreferredOverExternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	processor := mocks.NewMockImageProcessor(ctrl)
	processor.EXPECT().
		Process(gomock.Any(), "https://files.example.com/hosted.png").
		Return(&domain.ImageAsset{Key: "k.png", Width: 1, Height: 1}, nil)

	r := newTestRewriter(t, processor, false)

	block := rawBlock(t, "b6", "image", map[string]any{
		"type": "image",
		"image": map[string]any{
			"type":     "file",
			"file":     map[string]any{"url": "https://files.example.com/hosted.png"},
			"external": map[string]any{"url": "https://elsewhere.example.com/x.png"},
		},
	})

	_, err := r.Rewrite(context.Background(), block)
	require.NoError(t, err)
}
