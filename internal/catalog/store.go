// internal/catalog/store.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/models"
)

var (
	ErrCatalogQueryFailed = errors.New("CATALOG_QUERY_FAILED")
	ErrCatalogDecode      = errors.New("CATALOG_DECODE_FAILED")
)

// Store lists every subsidy in the catalog.
type Store interface {
	ListSubsidies(ctx context.Context) ([]models.Subsidy, error)
}

const listSubsidiesQuery = `
		SELECT id, title, description, amount, eligibility, documents_required,
		       application_start_date, application_end_date
		FROM app_subsidy
		ORDER BY id`

// PostgresStore reads the app_subsidy table. eligibility and
// documents_required are JSONB lists of strings.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-postgres"}),
	}
}

func (s *PostgresStore) ListSubsidies(ctx context.Context) ([]models.Subsidy, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, listSubsidiesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	defer rows.Close()

	var subsidies []models.Subsidy
	for rows.Next() {
		var (
			id                     string
			title, description     sql.NullString
			amount                 sql.NullFloat64
			eligibility, documents []byte
			startDate, endDate     sql.NullTime
		)
		if err := rows.Scan(&id, &title, &description, &amount, &eligibility, &documents, &startDate, &endDate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
		}

		criteria, err := decodeStringList(eligibility)
		if err != nil {
			return nil, fmt.Errorf("%w: subsidy %s eligibility: %v", ErrCatalogDecode, id, err)
		}
		docs, err := decodeStringList(documents)
		if err != nil {
			return nil, fmt.Errorf("%w: subsidy %s documents_required: %v", ErrCatalogDecode, id, err)
		}

		subsidies = append(subsidies, models.Subsidy{
			ID:                   models.ID(id),
			Title:                title.String,
			Description:          description.String,
			Amount:               models.Decimal(amount.Float64),
			Eligibility:          criteria,
			DocumentsRequired:    docs,
			ApplicationStartDate: formatDate(startDate),
			ApplicationEndDate:   formatDate(endDate),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}

	s.logger.Debug("catalog loaded", map[string]interface{}{
		"count":      len(subsidies),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return subsidies, nil
}

// decodeStringList accepts a JSON array of strings or numbers, a bare JSON
// string (one entry) or SQL NULL.
func decodeStringList(raw []byte) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []string{}, nil
	}

	if trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			return nil, err
		}
		return []string{single}, nil
	}

	var items []interface{}
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case nil:
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out, nil
}

func formatDate(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format("2006-01-02")
	return &s
}
