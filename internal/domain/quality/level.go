package quality

// Level is the tier label derived from an overall score. Two label sets
// share the same cut points: the expert set and the orchestrator set.
type Level string

// Expert quality levels.
const (
	LevelExcellent        Level = "excellent"
	LevelGood             Level = "good"
	LevelSatisfactory     Level = "satisfactory"
	LevelNeedsImprovement Level = "needs_improvement"
	LevelPoor             Level = "poor"
)

// Orchestrator (synthesis) quality levels.
const (
	SynthesisExcellent  Level = "EXCELLENT"
	SynthesisVeryGood   Level = "VERY_GOOD"
	SynthesisGood       Level = "GOOD"
	SynthesisAcceptable Level = "ACCEPTABLE"
	SynthesisPoor       Level = "POOR"
)

// cutPoints are the lower bounds of tiers 4..1; anything below the last is tier 0.
var cutPoints = [...]float64{0.9, 0.8, 0.7, 0.6}

// tier maps a score to 0 (poor) .. 4 (excellent).
func tier(score float64) int {
	for i, cut := range cutPoints {
		if score >= cut {
			return len(cutPoints) - i
		}
	}
	return 0
}

var (
	expertLabels    = [...]Level{LevelPoor, LevelNeedsImprovement, LevelSatisfactory, LevelGood, LevelExcellent}
	synthesisLabels = [...]Level{SynthesisPoor, SynthesisAcceptable, SynthesisGood, SynthesisVeryGood, SynthesisExcellent}
)

// LevelFor returns the expert level for score.
func LevelFor(score float64) Level {
	return expertLabels[tier(score)]
}

// SynthesisLevelFor returns the orchestrator level for score.
func SynthesisLevelFor(score float64) Level {
	return synthesisLabels[tier(score)]
}

// Rank orders levels from 0 (poor) to 4 (excellent) across both label sets.
// Unknown labels rank -1.
func (l Level) Rank() int {
	for i := range expertLabels {
		if expertLabels[i] == l || synthesisLabels[i] == l {
			return i
		}
	}
	return -1
}
