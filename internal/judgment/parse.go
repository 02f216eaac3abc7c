// internal/judgment/parse.go
package judgment

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"subsidy-recommender/internal/common/validation"
	"subsidy-recommender/internal/models"
)

var eligibilitySchema = validation.MustCompile(`{
  "type": "object",
  "properties": {
    "eligible": {"type": "boolean"},
    "reason":   {"type": "string"}
  }
}`)

var scoreSchema = validation.MustCompile(`{
  "type": "object",
  "properties": {
    "score":        {"type": "number"},
    "reasoning":    {"type": "string"},
    "key_benefits": {"type": "array", "items": {"type": "string"}}
  }
}`)

// stripCodeFences removes a surrounding ``` or ```json fence.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "```"), "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseVerdict decodes an eligibility answer. A missing "eligible" field
// means not eligible.
func parseVerdict(raw string, subsidyID models.ID) (models.EligibilityVerdict, error) {
	body := []byte(stripCodeFences(raw))
	if res := eligibilitySchema.ValidateJSON(body); !res.Valid {
		return models.EligibilityVerdict{}, fmt.Errorf("%w: %s", ErrInvalidResponse, res.Error())
	}

	var out struct {
		Eligible bool   `json:"eligible"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return models.EligibilityVerdict{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return models.EligibilityVerdict{SubsidyID: subsidyID, Eligible: out.Eligible, Reason: out.Reason}, nil
}

// parseScore decodes a relevance answer. Absent fields default to zero
// values; the score is rounded and clamped to 0..100.
func parseScore(raw string) (models.RelevanceScore, error) {
	body := []byte(stripCodeFences(raw))
	if res := scoreSchema.ValidateJSON(body); !res.Valid {
		return models.RelevanceScore{}, fmt.Errorf("%w: %s", ErrInvalidResponse, res.Error())
	}

	var out struct {
		Score       float64  `json:"score"`
		Reasoning   string   `json:"reasoning"`
		KeyBenefits []string `json:"key_benefits"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return models.RelevanceScore{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if out.KeyBenefits == nil {
		out.KeyBenefits = []string{}
	}

	return models.RelevanceScore{
		Score:       clampScore(out.Score),
		Reasoning:   out.Reasoning,
		KeyBenefits: out.KeyBenefits,
	}, nil
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(v))))
}
