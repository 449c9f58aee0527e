package domain

import "time"

type JobOutcome int

const (
	// Job was left alone: policy said none, or no global rule matched
	OutcomeSkipped JobOutcome = iota

	// A discarder ran for the job
	OutcomeApplied

	// The discarder failed or the configured policy mode was unsupported
	OutcomeFailed
)

type JobResult struct {
	Job     string
	Outcome JobOutcome

	// RuleIndex is the index of the applied global rule, NoRuleMatched for
	// own discarders and skips.
	RuleIndex int

	Reason string
}

// RunReport aggregates the per-job outcomes of one rotation pass for the
// observability surface. A report of an aborted pass only covers the jobs
// processed before the cancellation.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time

	Applied int
	Skipped int
	Failed  int

	Results []JobResult
}

func (r *RunReport) record(result JobResult) {
	switch result.Outcome {
	case OutcomeApplied:
		r.Applied++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}

	r.Results = append(r.Results, result)
}
