// Package querylog appends answered questions to an external, append-only log.
package querylog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloo-solutions/kbagent/internal/config"
	"github.com/cloo-solutions/kbagent/internal/domain"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	DefaultRange     = "Sheet1!A1"
	valueInputOption = "RAW"
	insertDataOption = "INSERT_ROWS"
)

// CredentialResolver supplies service-account JSON.
type CredentialResolver interface {
	ResolveGoogleCredentials() (*config.GoogleCredentials, error)
}

// ServiceFactory builds a Sheets client from service-account JSON.
type ServiceFactory func(ctx context.Context, credentialsJSON []byte) (*sheets.Service, error)

// NewSheetsService is the production ServiceFactory.
func NewSheetsService(ctx context.Context, credentialsJSON []byte) (*sheets.Service, error) {
	return sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
}

type SheetsConfig struct {
	SpreadsheetID string
	Range         string
	Credentials   CredentialResolver
	// NewService defaults to NewSheetsService.
	NewService ServiceFactory
}

// SheetsLogger appends rows of (timestamp, query, answer) to a Google Sheet.
// Credentials are loaded on first use, once per process; a failure is remembered.
type SheetsLogger struct {
	spreadsheetID string
	rng           string
	credentials   CredentialResolver
	newService    ServiceFactory

	once    sync.Once
	svc     *sheets.Service
	initErr error
}

func NewSheetsLogger(cfg SheetsConfig) *SheetsLogger {
	if cfg.Range == "" {
		cfg.Range = DefaultRange
	}
	if cfg.NewService == nil {
		cfg.NewService = NewSheetsService
	}
	return &SheetsLogger{
		spreadsheetID: cfg.SpreadsheetID,
		rng:           cfg.Range,
		credentials:   cfg.Credentials,
		newService:    cfg.NewService,
	}
}

func (l *SheetsLogger) service(ctx context.Context) (*sheets.Service, error) {
	l.once.Do(func() {
		creds, err := l.credentials.ResolveGoogleCredentials()
		if err != nil {
			l.initErr = err
			return
		}
		svc, err := l.newService(ctx, creds.JSON)
		if err != nil {
			l.initErr = domain.NewDomainErrorWithCause(domain.ErrCodeCredential, "failed to create sheets client", err)
			return
		}
		l.svc = svc
	})
	return l.svc, l.initErr
}

// Log appends one row per entry. Credential problems are CREDENTIAL_ERROR, API failures
// STORAGE_ERROR.
func (l *SheetsLogger) Log(ctx context.Context, entries []domain.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	svc, err := l.service(ctx)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, len(entries))
	for i, e := range entries {
		rows[i] = []interface{}{e.Timestamp.Format(time.RFC3339), e.Query, e.Answer}
	}

	_, err = svc.Spreadsheets.Values.
		Append(l.spreadsheetID, l.rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStorage,
			fmt.Sprintf("failed to append %d rows to spreadsheet", len(rows)), err)
	}
	return nil
}
