package auth

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Provider identifies an AI backend that needs an API key.
type Provider string

const (
	ProviderGemini      Provider = "gemini"
	ProviderOpenAI      Provider = "openai"
	ProviderHuggingFace Provider = "huggingface"
)

const credentialDir = ".ai-slide-generator"

// EnvVar returns the environment variable holding the provider's key.
func (p Provider) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderHuggingFace:
		return "HUGGINGFACE_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

// placeholderKeys are values shipped in sample .env files.
var placeholderKeys = map[string]bool{
	"your_huggingface_api_key_here": true,
	"your_openai_api_key_here":      true,
	"your_gemini_api_key_here":      true,
}

// GetAPIKey retrieves the API key for a provider from available sources.
// Priority order:
//  1. <PROVIDER>_API_KEY environment variable
//  2. GPG-encrypted file at ~/.ai-slide-generator/<provider>.gpg
func GetAPIKey(p Provider) (string, error) {
	if key := strings.TrimSpace(os.Getenv(p.EnvVar())); key != "" && !placeholderKeys[key] {
		log.Debug().Str("provider", string(p)).Msg("Using API key from environment variable")
		return key, nil
	}

	key, err := getFromGPG(p)
	if err == nil && key != "" {
		log.Debug().Str("provider", string(p)).Msg("Using API key from GPG encrypted file")
		return key, nil
	}

	log.Debug().Err(err).Str("provider", string(p)).Msg("API key not available")
	return "", &ValidationError{
		Type:    ErrTypeNoKey,
		Message: fmt.Sprintf("%s API key not found. Set %s or store it in ~/%s/%s.gpg", p, p.EnvVar(), credentialDir, p),
	}
}

// getFromGPG decrypts the provider's API key from its GPG-encrypted credentials file.
func getFromGPG(p Provider) (string, error) {
	credPath, err := getCredentialPath(p)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")

	args := []string{"--decrypt", "--quiet"}

	if passphrasePath, err := getPassphrasePath(); err == nil {
		fi, statErr := os.Stat(passphrasePath)
		if statErr == nil {
			// Passphrase file must be owner-only.
			mode := fi.Mode().Perm()
			if mode&0077 != 0 {
				log.Warn().
					Str("passphrase_file", passphrasePath).
					Str("permissions", fmt.Sprintf("%04o", mode)).
					Msg("Passphrase file has insecure permissions (should be 0600); skipping")
			} else {
				args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphrasePath)
			}
		}
	}

	args = append(args, credPath)
	output, err := exec.Command("gpg", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("GPG decryption failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// getCredentialPath returns the full path to a provider's credentials file.
func getCredentialPath(p Provider) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, string(p)+".gpg"), nil
}

// getPassphrasePath returns the path to the GPG passphrase file next to the
// executable, or in the working directory during development.
func getPassphrasePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	passphrasePath := filepath.Join(filepath.Dir(exe), ".gpg-passphrase")
	if _, err := os.Stat(passphrasePath); err == nil {
		return passphrasePath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, ".gpg-passphrase"), nil
}
