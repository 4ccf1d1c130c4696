package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ai-slide-generator/internal/api"
	"github.com/fpang/ai-slide-generator/internal/cli"
	"github.com/fpang/ai-slide-generator/internal/config"
	"github.com/fpang/ai-slide-generator/internal/feedback"
	"github.com/fpang/ai-slide-generator/internal/lambdaboot"
	"github.com/fpang/ai-slide-generator/internal/logging"
	"github.com/fpang/ai-slide-generator/internal/pipeline"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

// Build-time version identity, injected via -ldflags.
var (
	commitHash = "dev"
	buildTime  = "unknown"
)

// CLI flags
var (
	portFlag     int
	validateFlag bool
	staticFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "slides-web",
	Short: "HTTP server for AI slide generation",
	Long: `Slides Web serves the slide generator API: a streaming generation endpoint
that emits every pipeline step as a Server-Sent Event, a feedback endpoint for
revising finished slides, and supporting routes for templates, usage reports,
health and Prometheus metrics.

Examples:
  slides-web
  slides-web --port 9090 --validate
  slides-web --static ./frontend/dist`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides SLIDES_PORT)")
	rootCmd.Flags().BoolVar(&validateFlag, "validate", false, "Validate the text provider API key before serving")
	rootCmd.Flags().StringVar(&staticFlag, "static", "", "Directory of frontend files to serve at /")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	text := cli.InitTextGenerator(ctx, cfg, validateFlag)

	// AWS is only touched when a bucket or table is configured.
	var awsCfg aws.Config
	if cfg.ImageBucket != "" || cfg.UsageTable != "" {
		awsCfg = lambdaboot.InitAWS(ctx).Config
	}
	sink := lambdaboot.InitImageSink(awsCfg, cfg.ImageBucket, cfg.ImagePrefix)
	images := cfg.ImageRegistry(sink)

	var store usage.Store
	if cfg.UsageTable != "" {
		store = lambdaboot.InitUsageStore(awsCfg, cfg.UsageTable)
	} else {
		mem := usage.NewMemoryStore()
		go mem.Janitor(ctx, time.Hour)
		store = mem
	}

	providers := map[string]string{
		"text":  text.Provider() + "/" + text.Model(),
		"image": cfg.ImageProvider,
	}
	handler := api.NewHandler(api.Options{
		Pipeline: pipeline.New(text, images),
		Reviser: feedback.New(text, cfg.FeedbackImages(images)).
			WithImageTimeout(cfg.FeedbackImageTimeout).
			WithConcurrency(cfg.FeedbackConcurrency),
		Store:          store,
		AllowedOrigins: cfg.AllowedOrigins,
		Providers:      providers,
	})
	if staticFlag != "" {
		handler.Handle("GET /", http.FileServer(http.Dir(staticFlag)))
	}

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: a full generation stream can run for minutes.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	lambdaboot.StartupLog("slides-web", initStart).
		Version(commitHash+"@"+buildTime).
		Provider("text", providers["text"]).
		Provider("image", cfg.ImageProvider).
		S3Bucket("images", cfg.ImageBucket).
		DynamoTable("usage", cfg.UsageTable).
		Feature("imageSink", sink != nil).
		Feature("validated", validateFlag).
		Config("port", strconv.Itoa(cfg.Port)).
		Config("imageProviders", fmt.Sprint(images.Names())).
		Config("primaryImageTimeout", cfg.PrimaryImageTimeout.String()).
		Config("secondaryImageTimeout", cfg.SecondaryImageTimeout.String()).
		Log()

	fmt.Printf("\n  Slide generator API: http://localhost:%d/api\n\n", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
