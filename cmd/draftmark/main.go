package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/draftmark/draftmark/internal/ai"
	"github.com/draftmark/draftmark/internal/annotation"
	"github.com/draftmark/draftmark/internal/config"
	"github.com/draftmark/draftmark/internal/docstore"
	"github.com/draftmark/draftmark/internal/handler"
	"github.com/draftmark/draftmark/internal/job"
	"github.com/draftmark/draftmark/internal/kvstore"
	"github.com/draftmark/draftmark/internal/middleware"
	"github.com/draftmark/draftmark/internal/schedule"
	"github.com/draftmark/draftmark/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "draftmark",
		Short: "draftmark review backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run draftmark server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildSuggestClient(cfg config.AIConfig) (*ai.Client, error) {
	if cfg.Provider == "" {
		// No provider configured: every suggestion call resolves to a
		// null suggestion without network I/O.
		return ai.NewClient(nil, nil, nil, ai.ClientConfig{}), nil
	}
	primary, err := ai.NewProvider(cfg.Provider, cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("init primary ai provider: %w", err)
	}
	fallback, err := ai.NewProvider(cfg.FallbackProvider, cfg.FallbackData)
	if err != nil {
		return nil, fmt.Errorf("init fallback ai provider: %w", err)
	}
	var searcher ai.WebSearcher
	if cfg.EnableWebSearch {
		searcher = ai.NewDuckDuckGoSearcher("")
	}
	return ai.NewClient(primary, fallback, searcher, ai.ClientConfig{
		Model:         cfg.Model,
		FallbackModel: cfg.FallbackModel,
	}), nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("store", cfg.Store.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	kv, err := kvstore.New(cfg.Store.Type, cfg.Store.Data)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer kv.Close()

	documents := docstore.New(kv)
	annotations := annotation.NewSync(kv)
	suggestClient, err := buildSuggestClient(cfg.AI)
	if err != nil {
		return err
	}

	documentService := service.NewDocumentService(documents)
	annotationService := service.NewAnnotationService(annotations)
	suggestService := service.NewSuggestService(suggestClient)

	deps := handler.RouterDeps{
		Documents:   handler.NewDocumentHandler(documentService),
		Annotations: handler.NewAnnotationHandler(annotationService),
		Suggestions: handler.NewSuggestHandler(suggestService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewOrphanSweepJob(kv), cfg.Jobs.OrphanSweepSpec); err != nil {
		return fmt.Errorf("schedule orphan sweep: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
