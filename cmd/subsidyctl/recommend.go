// cmd/subsidyctl/recommend.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"subsidy-recommender/internal/catalog"
	"subsidy-recommender/internal/common/config"
	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/judgment"
	"subsidy-recommender/internal/models"
	"subsidy-recommender/internal/recommender"
	"subsidy-recommender/internal/service"
)

var (
	recProfilePath string
	recCatalogPath string
	recConfigPath  string
	recProvider    string
	recRulesPath   string
	recTimeout     time.Duration
	recVerbose     bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run the recommendation pipeline for one profile against a catalog file",
	Long: `Loads a farmer profile and a JSON array of subsidies from disk, runs the
eligibility, scoring and ranking stages and prints the response as JSON.

Without --config the judgment backend is built from flags; the rules provider
needs no network access.`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVar(&recProfilePath, "profile", "", "farmer profile JSON file ('-' for stdin)")
	recommendCmd.Flags().StringVar(&recCatalogPath, "catalog", "", "subsidy catalog JSON file")
	recommendCmd.Flags().StringVar(&recConfigPath, "config", "", "take the judgment settings from this config file")
	recommendCmd.Flags().StringVar(&recProvider, "provider", config.ProviderRules, "judgment provider: rules, openai, anthropic or gemini")
	recommendCmd.Flags().StringVar(&recRulesPath, "rules", "configs/rules.yaml", "rulebook for the rules provider")
	recommendCmd.Flags().DurationVar(&recTimeout, "timeout", 10*time.Minute, "overall deadline for the run")
	recommendCmd.Flags().BoolVarP(&recVerbose, "verbose", "v", false, "log pipeline progress to stderr")
	_ = recommendCmd.MarkFlagRequired("profile")
	_ = recommendCmd.MarkFlagRequired("catalog")
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), recTimeout)
	defer cancel()

	level := "warn"
	if recVerbose {
		level = "debug"
	}
	log := logger.NewZapAdapter(logger.New(level, "console", "stderr"))

	judgmentCfg, err := judgmentConfig()
	if err != nil {
		return err
	}
	judge, err := judgment.New(judgmentCfg, log)
	if err != nil {
		return fmt.Errorf("judgment service: %w", err)
	}

	profile, err := readProfile(cmd.InOrStdin(), recProfilePath)
	if err != nil {
		return err
	}

	svc := service.New(service.Config{CatalogSource: "file"},
		catalog.NewFileStore(recCatalogPath), recommender.NewPipeline(judge, log), nil, log)

	resp, err := svc.Recommend(service.WithRequestID(ctx, "cli"), profile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

func judgmentConfig() (config.JudgmentConfig, error) {
	if recConfigPath != "" {
		cfg, err := config.LoadFromFile(recConfigPath)
		if err != nil {
			return config.JudgmentConfig{}, err
		}
		return cfg.Judgment, nil
	}

	var j config.JudgmentConfig
	j.Provider = recProvider
	j.Rules.Path = recRulesPath
	j.OpenAI.APIKey = firstEnv("GROQ_API_KEY", "OPENAI_API_KEY")
	j.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	j.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	config.ApplyJudgmentDefaults(&j)
	return j, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// readProfile accepts the bare profile or the {"farmer_profile": {...}}
// request envelope.
func readProfile(stdin io.Reader, path string) (models.FarmerProfile, error) {
	var profile models.FarmerProfile

	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return profile, fmt.Errorf("read profile: %w", err)
	}

	var envelope struct {
		FarmerProfile json.RawMessage `json:"farmer_profile"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return profile, fmt.Errorf("parse profile: %w", err)
	}
	if len(envelope.FarmerProfile) > 0 {
		raw = envelope.FarmerProfile
	}

	if err := json.Unmarshal(raw, &profile); err != nil {
		return profile, fmt.Errorf("parse profile: %w", err)
	}
	return profile, nil
}
