package app

import (
	"context"
	"fmt"

	"github.com/quantmind-br/pagesync-go/internal/assetidx"
	"github.com/quantmind-br/pagesync-go/internal/config"
	"github.com/quantmind-br/pagesync-go/internal/domain"
	"github.com/quantmind-br/pagesync-go/internal/fetcher"
	"github.com/quantmind-br/pagesync-go/internal/imageproc"
	"github.com/quantmind-br/pagesync-go/internal/notion"
	"github.com/quantmind-br/pagesync-go/internal/ratelimit"
	"github.com/quantmind-br/pagesync-go/internal/rewrite"
	"github.com/quantmind-br/pagesync-go/internal/storage"
	pagesync "github.com/quantmind-br/pagesync-go/internal/sync"
	"github.com/quantmind-br/pagesync-go/internal/utils"
)

// App wires configuration into a ready-to-run sync pipeline and owns
// the resources behind it.
type App struct {
	config       *config.Config
	logger       *utils.Logger
	orchestrator *pagesync.Orchestrator
	downloader   domain.Downloader
	index        domain.AssetIndex
}

// New builds the pipeline from configuration. The config must already
// be validated.
func New(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}

	limiter := ratelimit.New(ratelimit.Options{
		Interval: cfg.RateLimit.Interval,
		Burst:    cfg.RateLimit.Burst,
	})

	api, err := notion.NewClient(notion.Options{
		BaseURL:           cfg.Notion.BaseURL,
		Token:             cfg.Notion.Token,
		Version:           cfg.Notion.Version,
		DatabaseID:        cfg.Notion.DatabaseID,
		SyncedProperty:    cfg.Notion.SyncedProperty,
		PublishedProperty: cfg.Notion.PublishedProperty,
		Timeout:           cfg.Notion.Timeout,
		Limiter:           limiter,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create content api client: %w", err)
	}

	store, err := storage.NewS3Store(ctx, storage.S3Options{
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		PathStyle: cfg.Storage.PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob store: %w", err)
	}

	downloader, err := fetcher.NewClient(fetcher.ClientOptions{
		Timeout:   cfg.Images.DownloadTimeout,
		UserAgent: cfg.Images.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create downloader: %w", err)
	}

	var index domain.AssetIndex
	if cfg.Index.Enabled {
		idx, err := assetidx.New(assetidx.Options{
			Directory: cfg.Index.Directory,
			InMemory:  cfg.Index.InMemory,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Asset index unavailable, uploads will not be deduplicated")
		} else {
			index = idx
		}
	}

	processor, err := imageproc.NewProcessor(imageproc.Options{
		Downloader:    downloader,
		Store:         store,
		Index:         index,
		Limiter:       limiter,
		ConvertToWebp: cfg.Images.ConvertToWebp,
		MaxAttempts:   cfg.Images.MaxAttempts,
		RetryInterval: cfg.Images.RetryInterval,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image processor: %w", err)
	}

	rewriter, err := rewrite.NewRewriter(rewrite.Options{
		Processor:    processor,
		BaseURL:      cfg.Images.BaseURL,
		StrictImages: cfg.Sync.StrictImages,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rewriter: %w", err)
	}

	orchestrator, err := pagesync.NewOrchestrator(pagesync.Options{
		API:           api,
		Rewriter:      rewriter,
		StrictDeletes: cfg.Sync.StrictDeletes,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return &App{
		config:       cfg,
		logger:       logger,
		orchestrator: orchestrator,
		downloader:   downloader,
		index:        index,
	}, nil
}

// Run executes one synchronization pass
func (a *App) Run(ctx context.Context) (*domain.Report, error) {
	return a.orchestrator.Run(ctx)
}

// Close releases all resources held by the app
func (a *App) Close() error {
	if a.downloader != nil {
		_ = a.downloader.Close()
	}
	if a.index != nil {
		return a.index.Close()
	}
	return nil
}
