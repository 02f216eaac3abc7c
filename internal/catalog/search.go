// internal/catalog/search.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// maxSearchSize bounds a single match_all page.
const maxSearchSize = 10000

// SearchStore reads the catalog from an Elasticsearch index whose documents
// have the same shape as models.Subsidy.
type SearchStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearchStore(client *elasticsearch.Client, index string, log logger.Logger) *SearchStore {
	return &SearchStore{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-search", "index": index}),
	}
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *SearchStore) ListSubsidies(ctx context.Context) ([]models.Subsidy, error) {
	query := `{"query":{"match_all":{}},"sort":[{"_doc":"asc"}]}`

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(strings.NewReader(query)),
		s.client.Search.WithSize(maxSearchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search failed: %s", ErrCatalogQueryFailed, res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogDecode, err)
	}

	subsidies := make([]models.Subsidy, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		var sub models.Subsidy
		if err := json.Unmarshal(hit.Source, &sub); err != nil {
			return nil, fmt.Errorf("%w: document %s: %v", ErrCatalogDecode, hit.ID, err)
		}
		if sub.ID == "" {
			sub.ID = models.ID(hit.ID)
		}
		subsidies = append(subsidies, sub)
	}

	if r.Hits.Total.Value > int64(len(subsidies)) {
		s.logger.Warn("catalog truncated", map[string]interface{}{
			"total":    r.Hits.Total.Value,
			"returned": len(subsidies),
		})
	}
	s.logger.Debug("catalog loaded", map[string]interface{}{
		"count":  len(subsidies),
		"tookMs": r.Took,
	})
	return subsidies, nil
}
