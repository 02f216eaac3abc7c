// internal/judgment/rules.go
package judgment

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/models"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// Rule maps free-text criteria to a CEL expression. Match is a
// case-insensitive regular expression tested against each criterion; Expr
// must evaluate to a bool over the "farmer" variable.
type Rule struct {
	Name  string `yaml:"name"`
	Match string `yaml:"match"`
	Expr  string `yaml:"expr"`
}

type Rulebook struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRulebook reads a YAML rulebook from disk.
func LoadRulebook(path string) (*Rulebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}
	return ParseRulebook(data)
}

func ParseRulebook(data []byte) (*Rulebook, error) {
	var book Rulebook
	if err := yaml.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("parse rulebook: %w", err)
	}
	return &book, nil
}

type compiledRule struct {
	name  string
	match *regexp.Regexp
	prg   cel.Program
}

// RuleJudge is a deterministic JudgmentService. Eligibility comes from the
// rulebook, relevance from a fixed point rubric.
type RuleJudge struct {
	rules  []compiledRule
	now    func() time.Time
	logger logger.Logger
}

func NewRuleJudge(book *Rulebook, log logger.Logger) (*RuleJudge, error) {
	env, err := cel.NewEnv(cel.Variable("farmer", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	rules := make([]compiledRule, 0, len(book.Rules))
	for _, r := range book.Rules {
		re, err := regexp.Compile("(?i)" + r.Match)
		if err != nil {
			return nil, fmt.Errorf("rule %q: bad match pattern: %w", r.Name, err)
		}

		ast, issues := env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %q: compile error: %v", r.Name, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %q: program error: %v", r.Name, err)
		}

		rules = append(rules, compiledRule{name: r.Name, match: re, prg: prg})
	}

	return &RuleJudge{
		rules:  rules,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "rule-judge"}),
	}, nil
}

func (j *RuleJudge) CheckEligibility(_ context.Context, profile models.FarmerProfile, subsidy models.Subsidy) (models.EligibilityVerdict, error) {
	vars := map[string]interface{}{"farmer": farmerVars(profile)}

	var failed, unmatched []string
	for _, criterion := range subsidy.Eligibility {
		matched := false
		for _, r := range j.rules {
			if !r.match.MatchString(criterion) {
				continue
			}
			matched = true

			out, _, err := r.prg.Eval(vars)
			if err != nil {
				return models.EligibilityVerdict{}, fmt.Errorf("rule %q: eval error: %v", r.name, err)
			}
			ok, isBool := out.Value().(bool)
			if !isBool {
				return models.EligibilityVerdict{}, fmt.Errorf("rule %q: expression must return boolean, got %T", r.name, out.Value())
			}
			if !ok {
				failed = append(failed, fmt.Sprintf("%s [%s]", criterion, r.name))
			}
		}
		if !matched {
			unmatched = append(unmatched, criterion)
		}
	}

	reason := "all evaluated criteria satisfied"
	if len(failed) > 0 {
		reason = "not met: " + strings.Join(failed, "; ")
	}
	if len(unmatched) > 0 {
		reason += "; not evaluated: " + strings.Join(unmatched, "; ")
	}

	return models.EligibilityVerdict{
		SubsidyID: subsidy.ID,
		Eligible:  len(failed) == 0,
		Reason:    reason,
	}, nil
}

// ScoreRelevance applies the rubric: crop 40, land and income fit 30,
// region 20, timing 10.
func (j *RuleJudge) ScoreRelevance(_ context.Context, profile models.FarmerProfile, subsidy models.Subsidy) (models.RelevanceScore, error) {
	text := strings.ToLower(strings.Join(append([]string{subsidy.Title, subsidy.Description}, subsidy.Eligibility...), " "))

	var parts []string
	var benefits []string
	total := 0

	crop := strings.ToLower(strings.TrimSpace(profile.CropType))
	cropPts := 0
	if crop != "" && strings.Contains(text, crop) {
		cropPts = 40
		benefits = append(benefits, "Targets "+profile.CropType+" growers")
	}
	total += cropPts
	parts = append(parts, fmt.Sprintf("crop %d/40", cropPts))

	fitPts := landIncomeFit(profile)
	if fitPts == 30 {
		benefits = append(benefits, "Suited to small landholdings")
	}
	total += fitPts
	parts = append(parts, fmt.Sprintf("land/income %d/30", fitPts))

	regionPts := 0
	for _, place := range []string{profile.State, profile.District} {
		if p := strings.ToLower(strings.TrimSpace(place)); p != "" && strings.Contains(text, p) {
			regionPts = 20
			benefits = append(benefits, "Available in "+place)
			break
		}
	}
	total += regionPts
	parts = append(parts, fmt.Sprintf("region %d/20", regionPts))

	timingPts := 0
	if windowOpen(subsidy.ApplicationStartDate, subsidy.ApplicationEndDate, j.now()) {
		timingPts = 10
		benefits = append(benefits, "Applications currently open")
	}
	total += timingPts
	parts = append(parts, fmt.Sprintf("timing %d/10", timingPts))

	if subsidy.Amount > 0 {
		benefits = append(benefits, "Financial assistance of ₹"+subsidy.Amount.String())
	}
	if benefits == nil {
		benefits = []string{}
	}

	return models.RelevanceScore{
		Score:       total,
		Reasoning:   strings.Join(parts, ", "),
		KeyBenefits: benefits,
	}, nil
}

func landIncomeFit(p models.FarmerProfile) int {
	ft := strings.ToLower(p.FarmerType)
	if strings.Contains(ft, "small") || strings.Contains(ft, "marginal") {
		return 30
	}
	land, ok := p.LandSize.Float()
	switch {
	case ok && land <= 5:
		return 30
	case ok && land <= 10:
		return 20
	default:
		return 10
	}
}

// windowOpen reports whether today falls in [start, end]. A missing bound is
// open ended; an unparsable one closes the window.
func windowOpen(start, end *string, now time.Time) bool {
	today := now.Format("2006-01-02")
	if start != nil && *start != "" {
		s, err := time.Parse("2006-01-02", *start)
		if err != nil || s.Format("2006-01-02") > today {
			return false
		}
	}
	if end != nil && *end != "" {
		e, err := time.Parse("2006-01-02", *end)
		if err != nil || e.Format("2006-01-02") < today {
			return false
		}
	}
	return true
}

// farmerVars exposes the profile to CEL. Numeric values are float64 when
// they parse; categorical strings are lower-cased.
func farmerVars(p models.FarmerProfile) map[string]interface{} {
	vars := map[string]interface{}{
		"farmer_type":      strings.ToLower(p.FarmerType),
		"crop_type":        strings.ToLower(p.CropType),
		"state":            strings.ToLower(p.State),
		"district":         strings.ToLower(p.District),
		"season":           strings.ToLower(p.Season),
		"soil_type":        strings.ToLower(p.SoilType),
		"rainfall_region":  strings.ToLower(p.RainfallRegion),
		"temperature_zone": strings.ToLower(p.TemperatureZone),
		"water_sources":    lowerAll(p.WaterSources),
		"past_subsidies":   append([]string{}, p.PastSubsidies...),
	}

	if v, ok := p.Income.Float(); ok {
		vars["income"] = v
	} else {
		vars["income"] = p.Income.String()
	}
	if v, ok := p.LandSize.Float(); ok {
		vars["land_size"] = v
	} else {
		vars["land_size"] = p.LandSize.String()
	}
	return vars
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
