package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/buildforge/logrotator/pkg/domain"
)

const jobsSelectQuery = `
	SELECT name, days_to_keep, builds_to_keep
	FROM jobs
	ORDER BY name ASC
`

type jobRecord struct {
	Name         string
	DaysToKeep   *int
	BuildsToKeep *int
}

// JobRepository enumerates the jobs the host platform manages. A job with
// either retention column set carries its own discarder; both columns NULL
// means the job never defined one.
type JobRepository struct {
	db         *sqlx.DB
	discarders domain.DiscarderFactory
}

func NewJobRepository(db *sqlx.DB, discarders domain.DiscarderFactory) *JobRepository {
	return &JobRepository{
		db:         db,
		discarders: discarders,
	}
}

func (r *JobRepository) AllJobs(ctx context.Context) ([]domain.Job, error) {
	var records []jobRecord

	err := r.db.SelectContext(ctx, &records, jobsSelectQuery)
	if err != nil {
		return nil, errors.Wrap(err, "unable to query jobs")
	}

	jobs := make([]domain.Job, 0, len(records))

	for _, rec := range records {
		var discarder domain.Discarder

		if rec.DaysToKeep != nil || rec.BuildsToKeep != nil {
			var spec domain.RetentionSpec

			if rec.DaysToKeep != nil {
				spec.DaysToKeep = *rec.DaysToKeep
			}
			if rec.BuildsToKeep != nil {
				spec.BuildsToKeep = *rec.BuildsToKeep
			}

			discarder = r.discarders.Discarder(spec)
		}

		jobs = append(jobs, domain.Job{
			Name:      rec.Name,
			Discarder: discarder,
		})
	}

	return jobs, nil
}
