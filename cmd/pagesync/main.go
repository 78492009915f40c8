package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantmind-br/pagesync-go/internal/app"
	"github.com/quantmind-br/pagesync-go/internal/config"
	"github.com/quantmind-br/pagesync-go/internal/notion"
	"github.com/quantmind-br/pagesync-go/internal/ratelimit"
	"github.com/quantmind-br/pagesync-go/internal/server"
	"github.com/quantmind-br/pagesync-go/internal/storage"
	"github.com/quantmind-br/pagesync-go/internal/utils"
	"github.com/quantmind-br/pagesync-go/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pagesync",
	Short: "Mirror page images into durable blob storage",
	Long: `PageSync mirrors structured documents from a content API: embedded
images are downloaded, content-addressed, uploaded to S3-compatible
storage, and the page's blocks are rewritten to reference the mirrored
assets.`,
	Version: version.Short(),
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.pagesync/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("database", "", "Content database identifier")
	rootCmd.PersistentFlags().String("bucket", "", "Blob storage bucket")
	rootCmd.PersistentFlags().String("image-base-url", "", "Public base URL for rewritten image references")
	rootCmd.PersistentFlags().Duration("rate-interval", 2*time.Second, "Spacing between outbound requests")
	rootCmd.PersistentFlags().Int("max-attempts", 3, "Image pipeline retry budget")
	rootCmd.PersistentFlags().Bool("strict-images", false, "Fail the page when an image exhausts its retries")
	rootCmd.PersistentFlags().Bool("no-index", false, "Disable the asset index")

	// Bind flags to viper
	_ = viper.BindPFlag("notion.database_id", rootCmd.PersistentFlags().Lookup("database"))
	_ = viper.BindPFlag("storage.bucket", rootCmd.PersistentFlags().Lookup("bucket"))
	_ = viper.BindPFlag("images.base_url", rootCmd.PersistentFlags().Lookup("image-base-url"))
	_ = viper.BindPFlag("rate_limit.interval", rootCmd.PersistentFlags().Lookup("rate-interval"))
	_ = viper.BindPFlag("images.max_attempts", rootCmd.PersistentFlags().Lookup("max-attempts"))
	_ = viper.BindPFlag("sync.strict_images", rootCmd.PersistentFlags().Lookup("strict-images"))

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		return
	}
	_ = config.EnsureConfigDir()
}

// setup loads config and builds the logger shared by the subcommands
func setup() (*config.Config, *utils.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := cfg.Logging.Level
	if verbose {
		logLevel = "debug"
	}
	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})

	if noIndex, _ := rootCmd.PersistentFlags().GetBool("no-index"); noIndex {
		cfg.Index.Enabled = false
	}

	return cfg, logger, nil
}

// signalContext returns a context cancelled by SIGINT/SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one synchronization pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Run(ctx)
		if err != nil {
			return err
		}

		if failed := report.Failed(); len(failed) > 0 {
			for _, p := range failed {
				logger.Error().Str("page_id", p.PageID).Err(p.Err).Msg("Page failed")
			}
			return fmt.Errorf("%d of %d pages failed", len(failed), len(report.Pages))
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the trigger endpoint and scheduled runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(server.Options{
			Runner:   a,
			Logger:   logger,
			Interval: cfg.Server.Interval,
		})
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and upstream reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Checking configuration...")
		allPassed := true

		fmt.Print("  Config file: ")
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("FAILED (%v)\n", err)
			fmt.Println()
			fmt.Println("Fix the configuration before running a sync.")
			return nil
		}
		fmt.Println("OK")

		fmt.Print("  API token: ")
		if cfg.Notion.Token != "" {
			fmt.Println("OK")
		} else {
			fmt.Println("MISSING")
			allPassed = false
		}

		fmt.Print("  Database id: ")
		if cfg.Notion.DatabaseID != "" {
			fmt.Println("OK")
		} else {
			fmt.Println("MISSING")
			allPassed = false
		}

		fmt.Print("  Bucket: ")
		if cfg.Storage.Bucket != "" {
			fmt.Println("OK")
		} else {
			fmt.Println("MISSING")
			allPassed = false
		}

		fmt.Print("  Index directory: ")
		if cfg.Index.Enabled {
			if err := os.MkdirAll(cfg.Index.Directory, 0755); err != nil {
				fmt.Printf("FAILED (%v)\n", err)
				allPassed = false
			} else {
				fmt.Printf("OK (%s)\n", cfg.Index.Directory)
			}
		} else {
			fmt.Println("DISABLED")
		}

		if cfg.Notion.Token != "" && cfg.Notion.DatabaseID != "" {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			fmt.Print("  Content API: ")
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
			})
			if err == nil {
				_, err = api.ListPages(ctx)
			}
			if err != nil {
				fmt.Printf("FAILED (%v)\n", err)
				allPassed = false
			} else {
				fmt.Println("OK")
			}

			if cfg.Storage.Bucket != "" {
				fmt.Print("  Bucket write: ")
				store, err := storage.NewS3Store(ctx, storage.S3Options{
					Bucket:    cfg.Storage.Bucket,
					Region:    cfg.Storage.Region,
					Endpoint:  cfg.Storage.Endpoint,
					AccessKey: cfg.Storage.AccessKey,
					SecretKey: cfg.Storage.SecretKey,
					PathStyle: cfg.Storage.PathStyle,
				})
				if err == nil {
					err = store.Put(ctx, ".pagesync-probe", []byte("ok"), "text/plain")
				}
				if err != nil {
					fmt.Printf("FAILED (%v)\n", err)
					allPassed = false
				} else {
					fmt.Println("OK")
				}
			}
		}

		fmt.Println()
		if allPassed {
			fmt.Println("All checks passed!")
		} else {
			fmt.Println("Some checks failed. Please resolve the issues above.")
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
