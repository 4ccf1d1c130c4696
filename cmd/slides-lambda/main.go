// Command slides-lambda serves the slide generator API behind API Gateway
// (HTTP API, payload v2).
//
// API Gateway buffers the whole response, so the event stream reaches the
// client in one piece when the run finishes; the frames and their order
// are unchanged.
package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/api"
	"github.com/fpang/ai-slide-generator/internal/auth"
	"github.com/fpang/ai-slide-generator/internal/config"
	"github.com/fpang/ai-slide-generator/internal/feedback"
	"github.com/fpang/ai-slide-generator/internal/lambdaboot"
	"github.com/fpang/ai-slide-generator/internal/logging"
	"github.com/fpang/ai-slide-generator/internal/pipeline"
	"github.com/fpang/ai-slide-generator/internal/textgen"
)

// Build-time version identity, injected via -ldflags.
var (
	commitHash = "dev"
	buildTime  = "unknown"
)

var handler *api.Handler

func init() {
	initStart := time.Now()
	logging.Init()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	clients := lambdaboot.InitAWS(ctx)
	required := auth.ProviderGemini
	if cfg.TextProvider == textgen.ProviderOpenAI {
		required = auth.ProviderOpenAI
	}
	loaded := lambdaboot.LoadAPIKeys(ctx, clients.SSM, required, auth.ProviderHuggingFace, auth.ProviderGemini)

	text, err := cfg.TextGenerator(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create text generator")
	}
	sink := lambdaboot.InitImageSink(clients.Config, cfg.ImageBucket, cfg.ImagePrefix)
	images := cfg.ImageRegistry(sink)
	store := lambdaboot.InitUsageStore(clients.Config, cfg.UsageTable)

	originVerifySecret := os.Getenv("ORIGIN_VERIFY_SECRET")
	if originVerifySecret == "" {
		log.Warn().Msg("ORIGIN_VERIFY_SECRET not set, origin verification disabled")
	}

	handler = api.NewHandler(api.Options{
		Pipeline: pipeline.New(text, images),
		Reviser: feedback.New(text, cfg.FeedbackImages(images)).
			WithImageTimeout(cfg.FeedbackImageTimeout).
			WithConcurrency(cfg.FeedbackConcurrency),
		Store:              store,
		AllowedOrigins:     cfg.AllowedOrigins,
		OriginVerifySecret: originVerifySecret,
		Providers: map[string]string{
			"text":  text.Provider() + "/" + text.Model(),
			"image": cfg.ImageProvider,
		},
	})

	startup := lambdaboot.StartupLog("slides-lambda", initStart).
		Version(commitHash+"@"+buildTime).
		Provider("text", text.Provider()+"/"+text.Model()).
		Provider("image", cfg.ImageProvider).
		S3Bucket("images", cfg.ImageBucket).
		DynamoTable("usage", cfg.UsageTable).
		Feature("imageSink", sink != nil).
		Feature("originVerify", originVerifySecret != "")
	for provider, path := range loaded {
		startup.SSMParam(provider, path)
	}
	startup.Log()
}

func main() {
	adapter := httpadapter.NewV2(handler)
	lambda.Start(adapter.ProxyWithContext)
}
