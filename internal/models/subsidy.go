// internal/models/subsidy.go
package models

import "encoding/json"

// Subsidy is one catalog entry as read from the subsidy store.
type Subsidy struct {
	ID                   ID       `json:"id"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Amount               Decimal  `json:"amount"`
	Eligibility          []string `json:"eligibility"`
	DocumentsRequired    []string `json:"documents_required"`
	ApplicationStartDate *string  `json:"application_start_date"`
	ApplicationEndDate   *string  `json:"application_end_date"`
}

// HasCriteria reports whether the subsidy carries any eligibility rule. A
// single empty string still counts as a rule.
func (s Subsidy) HasCriteria() bool {
	return len(s.Eligibility) > 0
}

// EligibilityVerdict is the answer to one eligibility question.
type EligibilityVerdict struct {
	SubsidyID ID     `json:"subsidy_id"`
	Eligible  bool   `json:"eligible"`
	Reason    string `json:"reason"`
}

// RelevanceScore is the answer to one relevance question.
type RelevanceScore struct {
	Score       int      `json:"score"`
	Reasoning   string   `json:"reasoning"`
	KeyBenefits []string `json:"key_benefits"`
}

// ScoredSubsidy is an eligible subsidy with its relevance score attached.
type ScoredSubsidy struct {
	Subsidy
	Score            int      `json:"score"`
	ScoringReasoning string   `json:"scoring_reasoning"`
	KeyBenefits      []string `json:"key_benefits"`
}

// UnmarshalJSON accepts the criteria under "eligibility" or, as some
// exporters write them, "eligibility_criteria".
func (s *Subsidy) UnmarshalJSON(data []byte) error {
	type plain Subsidy
	var aux struct {
		plain
		EligibilityCriteria []string `json:"eligibility_criteria"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Subsidy(aux.plain)
	if s.Eligibility == nil && aux.EligibilityCriteria != nil {
		s.Eligibility = aux.EligibilityCriteria
	}
	return nil
}
