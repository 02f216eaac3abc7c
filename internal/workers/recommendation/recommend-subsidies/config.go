// internal/workers/recommendation/recommend-subsidies/config.go
package recommendsubsidies

import (
	"time"

	"subsidy-recommender/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	MaxJobsActive int
}

// LoadConfig reads the worker entry for TaskType, falling back to the
// common worker defaults.
func LoadConfig(appCfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(appCfg, TaskType)
	return &Config{
		Timeout:       config.GetDuration(wcfg.Timeout),
		MaxJobsActive: wcfg.MaxJobsActive,
	}
}
