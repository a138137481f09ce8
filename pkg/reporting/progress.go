package reporting

import (
	"encoding/json"
	"fmt"
)

// OutputFormat selects how stage progress is rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Stage identifies one step of the compiler pipeline (spec.md §2).
type Stage int

const (
	StageRead Stage = iota
	StagePreprocess
	StageGraph
	StagePlan
	StageEmit
	StageScaffold
)

var stageNames = [...]string{"read", "preprocess", "graph", "plan", "emit", "scaffold"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// totalStages is used to compute the percentage reported alongside a stage.
const totalStages = len(stageNames)

// ProgressReporter reports which pipeline stage is running and how it
// concluded, mirroring the teacher's ProgressReporter shape but against
// compiler stages rather than a chaos test's live state.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a ProgressReporter writing in the given format.
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{format: format, logger: logger}
}

// StageStarted reports that a stage has begun.
func (pr *ProgressReporter) StageStarted(s Stage) {
	pct := int(float64(s) / float64(totalStages) * 100)
	switch pr.format {
	case FormatJSON:
		pr.emitJSON(map[string]interface{}{
			"event":   "stage_started",
			"stage":   s.String(),
			"percent": pct,
		})
	default:
		fmt.Printf("[%3d%%] %s: starting\n", pct, s.String())
	}
}

// StageCompleted reports that a stage finished successfully.
func (pr *ProgressReporter) StageCompleted(s Stage) {
	pct := int(float64(s+1) / float64(totalStages) * 100)
	switch pr.format {
	case FormatJSON:
		pr.emitJSON(map[string]interface{}{
			"event":   "stage_completed",
			"stage":   s.String(),
			"percent": pct,
		})
	default:
		fmt.Printf("[%3d%%] %s: done\n", pct, s.String())
	}
}

// StageFailed reports that a stage raised a fatal error.
func (pr *ProgressReporter) StageFailed(s Stage, err error) {
	switch pr.format {
	case FormatJSON:
		pr.emitJSON(map[string]interface{}{
			"event": "stage_failed",
			"stage": s.String(),
			"error": err.Error(),
		})
	default:
		fmt.Printf("[FAIL] %s: %v\n", s.String(), err)
	}
}

// Summary reports the final outcome: the output directory, any accumulated
// warnings, and whether the validator pass ran and what it found.
type Summary struct {
	OutputDir       string
	WarningCount    int
	ValidatorRan    bool
	ValidatorPassed bool
}

// ReportSummary prints the run's final summary.
func (pr *ProgressReporter) ReportSummary(s Summary) {
	switch pr.format {
	case FormatJSON:
		pr.emitJSON(map[string]interface{}{
			"event":            "summary",
			"output_dir":       s.OutputDir,
			"warning_count":    s.WarningCount,
			"validator_ran":    s.ValidatorRan,
			"validator_passed": s.ValidatorPassed,
		})
	default:
		fmt.Printf("generated case in %s\n", s.OutputDir)
		fmt.Printf("warnings: %d\n", s.WarningCount)
		if s.ValidatorRan {
			status := "passed"
			if !s.ValidatorPassed {
				status = "failed"
			}
			fmt.Printf("validator check: %s\n", status)
		} else {
			fmt.Println("validator check: skipped")
		}
	}
}

func (pr *ProgressReporter) emitJSON(v map[string]interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		pr.logger.Error("failed to marshal progress event", "error", err)
		return
	}
	fmt.Println(string(data))
}
