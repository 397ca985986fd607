package api

// Shared report types for batch benchmark runs. These are the wire form used
// by the CSV/JSON reports and by progress gatherers.

// StageStatus is the verdict of a single stage.
type StageStatus string

const (
	StagePass StageStatus = "PASS"
	StageFail StageStatus = "FAIL"
	StageSkip StageStatus = "SKIP"
)

// FailureStage names the stage that decided a benchmark's fate.
type FailureStage string

const (
	FailureNone            FailureStage = "none"
	FailureMakefileMissing FailureStage = "makefile_missing"
	FailureCompile         FailureStage = "compile"
	FailureRun             FailureStage = "run"
)

// ProjectOutcome is one row of the batch report.
type ProjectOutcome struct {
	Benchmark    string       `json:"benchmark"`
	Compile      StageStatus  `json:"compile"`
	Run          StageStatus  `json:"run"`
	FailureStage FailureStage `json:"failure_stage"`
	Note         string       `json:"note"`
}

// RunSummary holds the run-wide counters derived from all outcomes.
type RunSummary struct {
	Total         int `json:"total"`
	PassedBoth    int `json:"passed_both"`
	FailedCompile int `json:"failed_compile"`
	FailedRun     int `json:"failed_run"`
	SkippedRun    int `json:"skipped_run"`
}
