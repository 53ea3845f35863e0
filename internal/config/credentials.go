package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cloo-solutions/kbagent/internal/domain"
)

const envGoogleApplicationCredentials = "GOOGLE_APPLICATION_CREDENTIALS"

// CredentialSource names where service-account credentials were found.
type CredentialSource string

const (
	CredentialSourceEncoded CredentialSource = "GCP_KEY_B64"
	CredentialSourceFile    CredentialSource = "GCP_CREDENTIALS_FILE"
	CredentialSourceADC     CredentialSource = envGoogleApplicationCredentials
)

// GoogleCredentials is a validated service-account JSON document.
type GoogleCredentials struct {
	JSON   []byte
	Source CredentialSource
}

// ResolveGoogleCredentials returns service-account JSON, trying in order: the base64
// encoded GCP_KEY_B64 value, the GCP_CREDENTIALS_FILE path, then the
// GOOGLE_APPLICATION_CREDENTIALS path. Every failure is a CREDENTIAL_ERROR.
func (c *Config) ResolveGoogleCredentials() (*GoogleCredentials, error) {
	if encoded := strings.TrimSpace(c.GCPKeyB64); encoded != "" {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCredential, "GCP_KEY_B64 is not valid base64", err)
		}
		return validateCredentials(raw, CredentialSourceEncoded)
	}

	if path := c.GCPCredentialsFile; path != "" {
		return readCredentialsFile(path, CredentialSourceFile)
	}

	if path := os.Getenv(envGoogleApplicationCredentials); path != "" {
		return readCredentialsFile(path, CredentialSourceADC)
	}

	return nil, domain.ErrMissingCredentials
}

func readCredentialsFile(path string, source CredentialSource) (*GoogleCredentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCredential,
			fmt.Sprintf("failed to read credentials file %s", path), err)
	}
	return validateCredentials(raw, source)
}

func validateCredentials(raw []byte, source CredentialSource) (*GoogleCredentials, error) {
	var doc struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCredential,
			fmt.Sprintf("credentials from %s are not valid JSON", source), err)
	}
	if doc.Type == "" {
		return nil, domain.NewDomainError(domain.ErrCodeCredential,
			fmt.Sprintf("credentials from %s have no type field", source))
	}
	return &GoogleCredentials{JSON: raw, Source: source}, nil
}
