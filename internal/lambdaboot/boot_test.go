package lambdaboot

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/fpang/ai-slide-generator/internal/auth"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

type fakeSSM struct {
	params   map[string]string
	requests []string
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(in.Name)
	f.requests = append(f.requests, name)
	v, ok := f.params[name]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

// --- LoadAPIKeys Tests ---

func TestLoadAPIKeysFromSSM(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("HUGGINGFACE_API_KEY", "")
	fake := &fakeSSM{params: map[string]string{
		"/ai-slide-generator/prod/gemini-api-key":      "g-key",
		"/ai-slide-generator/prod/huggingface-api-key": "hf-key",
	}}

	loaded := LoadAPIKeys(context.Background(), fake, auth.ProviderGemini, auth.ProviderHuggingFace)
	if os.Getenv("GEMINI_API_KEY") != "g-key" {
		t.Errorf("expected gemini key exported, got %q", os.Getenv("GEMINI_API_KEY"))
	}
	if os.Getenv("HUGGINGFACE_API_KEY") != "hf-key" {
		t.Errorf("expected huggingface key exported, got %q", os.Getenv("HUGGINGFACE_API_KEY"))
	}
	if len(loaded) != 2 {
		t.Errorf("expected 2 keys loaded, got %v", loaded)
	}
}

func TestLoadAPIKeysSkipsPresentEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "already-set")
	fake := &fakeSSM{}

	LoadAPIKeys(context.Background(), fake, auth.ProviderGemini)
	if len(fake.requests) != 0 {
		t.Errorf("expected no SSM calls, got %v", fake.requests)
	}
}

func TestLoadAPIKeysOptionalMissing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "set")
	t.Setenv("HUGGINGFACE_API_KEY", "")
	fake := &fakeSSM{}

	loaded := LoadAPIKeys(context.Background(), fake, auth.ProviderGemini, auth.ProviderHuggingFace)
	if len(loaded) != 0 {
		t.Errorf("expected nothing loaded, got %v", loaded)
	}
	if len(fake.requests) != 1 {
		t.Errorf("expected one lookup for the optional key, got %v", fake.requests)
	}
}

func TestParamPathOverride(t *testing.T) {
	t.Setenv("SSM_OPENAI_KEY_PARAM", "/custom/openai")
	if got := ParamPath(auth.ProviderOpenAI); got != "/custom/openai" {
		t.Errorf("expected override, got %s", got)
	}
	if got := ParamPath(auth.ProviderGemini); got != "/ai-slide-generator/prod/gemini-api-key" {
		t.Errorf("unexpected default path %s", got)
	}
}

// --- Store and Sink Tests ---

func TestInitUsageStoreWithoutTable(t *testing.T) {
	if _, ok := InitUsageStore(aws.Config{}, "").(*usage.MemoryStore); !ok {
		t.Error("expected memory store without a table")
	}
	if _, ok := InitUsageStore(aws.Config{Region: "us-east-1"}, "usage").(*usage.DynamoStore); !ok {
		t.Error("expected DynamoDB store with a table")
	}
}

func TestInitImageSinkWithoutBucket(t *testing.T) {
	if InitImageSink(aws.Config{}, "", "slides") != nil {
		t.Error("expected nil sink without a bucket")
	}
}
