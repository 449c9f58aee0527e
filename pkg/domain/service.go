package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/buildforge/logrotator/pkg/appcontext"
)

// RotationService performs a single rotation pass over the platform's jobs.
type RotationService struct {
	logger logrus.FieldLogger

	store ConfigStore
}

func NewRotationService(logger logrus.FieldLogger, store ConfigStore) *RotationService {
	return &RotationService{
		logger: logger,
		store:  store,
	}
}

// Run sweeps all jobs once, in enumeration order. A failing discarder is
// recorded against its job and the sweep continues with the next one; only a
// cancellation aborts the sweep. The last-rotated timestamp advances exactly
// once, after the full iteration, even when some jobs failed — an aborted
// sweep leaves it untouched so the next tick retries from scratch.
func (s *RotationService) Run(ctx context.Context, jobs []Job, cfg Config, now time.Time) (RunReport, error) {
	report := RunReport{StartedAt: now}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := s.rotateJob(ctx, job, cfg, &report); err != nil {
			return report, err
		}
	}

	if err := s.store.UpdateLastRotated(ctx, EpochMillis(now)); err != nil {
		return report, errors.Wrap(err, "unable to persist last rotation time")
	}

	report.FinishedAt = time.Now()

	return report, nil
}

// rotateJob handles a single job. Everything except a cancellation is
// swallowed into the report: one bad job must never abort the pass.
func (s *RotationService) rotateJob(ctx context.Context, job Job, cfg Config, report *RunReport) error {
	ctx = appcontext.WithJobName(ctx, job.Name)
	logger := appcontext.LoggerFromContext(s.logger, ctx)

	mode := cfg.PolicyWithoutOwnDiscarder
	if job.HasOwnDiscarder() {
		mode = cfg.PolicyWithOwnDiscarder
	}

	action, err := Resolve(job.HasOwnDiscarder(), mode, cfg.GlobalRules, job.Name)
	if err != nil {
		logger.WithError(err).Error("Unsupported rotation policy, leaving job alone")

		report.record(JobResult{Job: job.Name, Outcome: OutcomeFailed, RuleIndex: NoRuleMatched, Reason: err.Error()})

		return nil
	}

	switch action.Kind {
	case ActionSkip:
		logger.Debug("Policy is to not rotate the job's builds")

		report.record(JobResult{Job: job.Name, Outcome: OutcomeSkipped, RuleIndex: NoRuleMatched})

	case ActionApplyOwn:
		logger.Debug("Policy is to rotate using the job's own discarder")

		return s.apply(ctx, job, job.Discarder, NoRuleMatched, report)

	case ActionApplyGlobal:
		if action.RuleIndex == NoRuleMatched {
			logger.Debug("No global rule applies to the job, its builds will not be rotated")

			report.record(JobResult{Job: job.Name, Outcome: OutcomeSkipped, RuleIndex: NoRuleMatched})

			return nil
		}

		ctx = appcontext.WithRuleIndex(ctx, action.RuleIndex)
		appcontext.LoggerFromContext(s.logger, ctx).Debug("Policy is to rotate using a global rule")

		return s.apply(ctx, job, cfg.GlobalRules[action.RuleIndex].Discarder(), action.RuleIndex, report)
	}

	return nil
}

func (s *RotationService) apply(ctx context.Context, job Job, discarder Discarder, ruleIndex int, report *RunReport) error {
	logger := appcontext.LoggerFromContext(s.logger, ctx)

	err := discarder.Apply(ctx, job)
	if err == nil {
		report.record(JobResult{Job: job.Name, Outcome: OutcomeApplied, RuleIndex: ruleIndex})

		return nil
	}

	// Cancellation is always re-raised, so the pass stays interruptable.
	if IsCancellation(err) {
		return err
	}

	logger.WithError(err).Warn("Discarder failed, skipping job & trying the next")

	report.record(JobResult{Job: job.Name, Outcome: OutcomeFailed, RuleIndex: ruleIndex, Reason: err.Error()})

	return nil
}

// IsCancellation reports whether err is the cooperative stop signal rather
// than an ordinary per-job failure.
func IsCancellation(err error) bool {
	cause := errors.Cause(err)

	return cause == context.Canceled || cause == context.DeadlineExceeded
}
