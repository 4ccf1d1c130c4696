package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects service identity, AI providers, AWS resources and
// feature flags, then emits a single structured zerolog event summarising
// how the process was configured. Works for both the local web server and
// the Lambda entry point; Lambda-only fields are left empty elsewhere.
type StartupLogger struct {
	name         string
	version      string
	initDuration time.Duration

	providers    map[string]string
	s3Buckets    map[string]string
	dynamoTables map[string]string
	ssmParams    map[string]string
	features     map[string]bool
	config       map[string]string
}

// NewStartupLogger creates a StartupLogger for the given binary name
// (e.g. "slides-web", "slides-lambda").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:         name,
		providers:    make(map[string]string),
		s3Buckets:    make(map[string]string),
		dynamoTables: make(map[string]string),
		ssmParams:    make(map[string]string),
		features:     make(map[string]bool),
		config:       make(map[string]string),
	}
}

// Version sets the build version baked into the binary.
func (s *StartupLogger) Version(v string) *StartupLogger {
	s.version = v
	return s
}

// Provider registers the AI provider serving a role ("text", "image").
func (s *StartupLogger) Provider(role, name string) *StartupLogger {
	s.providers[role] = name
	return s
}

// S3Bucket registers an S3 bucket used by this process.
func (s *StartupLogger) S3Bucket(label, name string) *StartupLogger {
	if name != "" {
		s.s3Buckets[label] = name
	}
	return s
}

// DynamoTable registers a DynamoDB table used by this process.
func (s *StartupLogger) DynamoTable(label, name string) *StartupLogger {
	if name != "" {
		s.dynamoTables[label] = name
	}
	return s
}

// SSMParam registers an SSM parameter path loaded at startup.
// Only the path is logged, never the value.
func (s *StartupLogger) SSMParam(label, path string) *StartupLogger {
	s.ssmParams[label] = path
	return s
}

// Feature registers a boolean feature flag (e.g. "imageSink", "emf").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long initialisation took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits a single structured INFO log event with all collected information.
func (s *StartupLogger) Log() {
	evt := log.Info()

	service := zerolog.Dict().
		Str("name", s.name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv("SLIDES_LOG_LEVEL"))
	if s.version != "" {
		service = service.Str("version", s.version)
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		service = service.
			Str("functionName", fn).
			Str("region", os.Getenv("AWS_REGION")).
			Str("memoryMB", os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE"))
	}
	evt = evt.Dict("service", service)

	if len(s.providers) > 0 {
		evt = evt.Dict("providers", dictFromMap(s.providers))
	}

	// Only non-empty resource maps are attached.
	resources := zerolog.Dict()
	hasResources := false
	if len(s.s3Buckets) > 0 {
		resources = resources.Dict("s3Buckets", dictFromMap(s.s3Buckets))
		hasResources = true
	}
	if len(s.dynamoTables) > 0 {
		resources = resources.Dict("dynamoTables", dictFromMap(s.dynamoTables))
		hasResources = true
	}
	if len(s.ssmParams) > 0 {
		resources = resources.Dict("ssmParams", dictFromMap(s.ssmParams))
		hasResources = true
	}
	if hasResources {
		evt = evt.Dict("resources", resources)
	}

	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}

	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Startup complete")
}

// dictFromMap converts a map[string]string into a zerolog.Event (Dict).
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
