// internal/recommender/errors.go
package recommender

import (
	"errors"
	"fmt"
)

// ErrEmptySubsidyList is returned by Recommend before any stage runs when it
// is handed no subsidies.
var ErrEmptySubsidyList = errors.New("EMPTY_SUBSIDY_LIST")

// Stage identifies a pipeline state.
type Stage int

const (
	StageStart Stage = iota
	StageFilterEligibility
	StageScoreSubsidies
	StageGenerateRecommendations
	StageEnd
)

var stageNames = map[Stage]string{
	StageStart:                   "START",
	StageFilterEligibility:       "FILTER_ELIGIBILITY",
	StageScoreSubsidies:          "SCORE_SUBSIDIES",
	StageGenerateRecommendations: "GENERATE_RECOMMENDATIONS",
	StageEnd:                     "END",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// StageError reports the stage a run failed in. The cause is kept intact so
// errors.Is and errors.As see through it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
