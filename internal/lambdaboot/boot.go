// Package lambdaboot provides the Lambda cold-start bootstrap: AWS config,
// the S3 image sink, the DynamoDB usage store, API keys from SSM Parameter
// Store, and startup logging. The web server reuses the same helpers when
// a bucket or table is configured.
package lambdaboot

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/auth"
	"github.com/fpang/ai-slide-generator/internal/imagegen"
	"github.com/fpang/ai-slide-generator/internal/logging"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

// AWSClients holds the core AWS SDK clients.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS(ctx context.Context) AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitImageSink returns an S3 sink for generated images, or nil when no
// bucket is configured (images are then inlined as data URIs).
func InitImageSink(cfg aws.Config, bucket, prefix string) imagegen.Sink {
	if bucket == "" {
		log.Debug().Msg("Image bucket not set, images will be inlined")
		return nil
	}
	client := s3.NewFromConfig(cfg)
	return imagegen.NewS3Sink(client, s3.NewPresignClient(client), bucket, prefix)
}

// InitUsageStore returns a DynamoDB usage store, or an in-memory store
// when no table is configured.
func InitUsageStore(cfg aws.Config, table string) usage.Store {
	if table == "" {
		log.Warn().Msg("Usage table not set, usage reports kept in memory")
		return usage.NewMemoryStore()
	}
	return usage.NewDynamoStore(dynamodb.NewFromConfig(cfg), table)
}

// ParameterAPI is the SSM call LoadAPIKeys needs.
type ParameterAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// DefaultParamPrefix is where API keys live in Parameter Store.
const DefaultParamPrefix = "/ai-slide-generator/prod"

// ParamPath returns the SSM path holding the provider's API key. It can be
// overridden per provider with SSM_<PROVIDER>_KEY_PARAM.
func ParamPath(p auth.Provider) string {
	return logging.EnvOrDefault("SSM_"+strings.ToUpper(string(p))+"_KEY_PARAM", DefaultParamPrefix+"/"+string(p)+"-api-key")
}

// LoadAPIKeys fetches each provider key that is not already set in the
// environment from SSM and exports it. A missing Gemini or OpenAI key for
// the active text provider is fatal; image keys are optional.
func LoadAPIKeys(ctx context.Context, client ParameterAPI, required auth.Provider, optional ...auth.Provider) map[string]string {
	loaded := make(map[string]string)
	for _, p := range append([]auth.Provider{required}, optional...) {
		if os.Getenv(p.EnvVar()) != "" {
			continue
		}
		path := ParamPath(p)
		start := time.Now()
		result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           &path,
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			if p == required {
				log.Fatal().Err(err).Str("param", path).Msg("Failed to read API key from SSM")
			}
			log.Warn().Err(err).Str("param", path).Msg("Optional API key not found in SSM")
			continue
		}
		os.Setenv(p.EnvVar(), aws.ToString(result.Parameter.Value))
		loaded[string(p)] = path
		log.Debug().Str("param", path).Dur("elapsed", time.Since(start)).Msg("API key loaded from SSM")
	}
	return loaded
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
