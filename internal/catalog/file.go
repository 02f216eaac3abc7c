// internal/catalog/file.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"subsidy-recommender/internal/models"
)

// FileStore serves a catalog from a JSON array on disk. Used by subsidyctl.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) ListSubsidies(_ context.Context) ([]models.Subsidy, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCatalogQueryFailed, f.path, err)
	}

	var subsidies []models.Subsidy
	if err := json.Unmarshal(data, &subsidies); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogDecode, f.path, err)
	}
	return subsidies, nil
}
