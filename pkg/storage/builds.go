package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/buildforge/logrotator/pkg/discard"
)

const (
	buildsSelectLiveQuery = `
		SELECT id, job_name, number, created_at
		FROM builds
		WHERE job_name = ? AND deleted_at IS NULL
		ORDER BY number DESC
	`

	buildMarkDeletedQuery = `
		UPDATE builds SET deleted_at = ? WHERE id = ?
	`
)

// BuildRepository gives the retention discarder access to the platform's
// build records. Deletion is a soft delete; reclaiming the storage behind a
// deleted record is the platform's business.
type BuildRepository struct {
	db *sqlx.DB
}

func NewBuildRepository(db *sqlx.DB) *BuildRepository {
	return &BuildRepository{
		db: db,
	}
}

func (r *BuildRepository) FindLive(ctx context.Context, jobName string) ([]discard.Build, error) {
	var builds []discard.Build

	err := r.db.SelectContext(ctx, &builds, buildsSelectLiveQuery, jobName)
	if err != nil {
		return nil, err
	}

	return builds, nil
}

func (r *BuildRepository) MarkDeleted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, buildMarkDeletedQuery, at, id)

	return err
}
