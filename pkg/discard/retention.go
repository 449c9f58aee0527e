package discard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/buildforge/logrotator/pkg/appcontext"
	"github.com/buildforge/logrotator/pkg/domain"
)

// Build is a single build record of a job, as the platform persists it.
type Build struct {
	Id        int64
	JobName   string
	Number    int64
	CreatedAt time.Time
}

type BuildRepository interface {
	// FindLive returns the job's non-deleted builds, newest first.
	FindLive(ctx context.Context, jobName string) ([]Build, error)
	MarkDeleted(ctx context.Context, id int64, at time.Time) error
}

// Factory produces retention discarders over the platform's build records.
// It is the production implementation behind domain.DiscarderFactory; the
// rotation core only ever sees the opaque domain.Discarder.
type Factory struct {
	logger logrus.FieldLogger
	repo   BuildRepository
}

func NewFactory(logger logrus.FieldLogger, repo BuildRepository) *Factory {
	return &Factory{
		logger: logger,
		repo:   repo,
	}
}

func (f *Factory) Discarder(spec domain.RetentionSpec) domain.Discarder {
	return &retentionDiscarder{
		logger: f.logger,
		repo:   f.repo,
		spec:   spec,
	}
}

type retentionDiscarder struct {
	logger logrus.FieldLogger
	repo   BuildRepository
	spec   domain.RetentionSpec
}

// Apply soft-deletes every build that exceeds a configured retention axis:
// beyond the BuildsToKeep newest ones, or older than DaysToKeep days. An
// unconfigured axis (<= 0) never deletes anything.
func (d *retentionDiscarder) Apply(ctx context.Context, job domain.Job) error {
	logger := appcontext.LoggerFromContext(d.logger, appcontext.WithJobName(ctx, job.Name))

	builds, err := d.repo.FindLive(ctx, job.Name)
	if err != nil {
		return errors.Wrap(err, "unable to query builds")
	}

	now := time.Now()
	discarded := 0

	for i, build := range builds {
		tooMany := d.spec.BuildsToKeep > 0 && i >= d.spec.BuildsToKeep
		tooOld := d.spec.DaysToKeep > 0 && now.Sub(build.CreatedAt) >= time.Duration(d.spec.DaysToKeep)*24*time.Hour

		if !tooMany && !tooOld {
			continue
		}

		if err := d.repo.MarkDeleted(ctx, build.Id, now); err != nil {
			return errors.Wrapf(err, "unable to discard build #%d", build.Number)
		}

		discarded++
	}

	if discarded > 0 {
		logger.WithField("discarded", discarded).Info("Discarded old builds")
	}

	return nil
}
