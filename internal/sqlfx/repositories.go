package sqlfx

import (
	"github.com/jmoiron/sqlx"

	"github.com/buildforge/logrotator/pkg/discard"
	"github.com/buildforge/logrotator/pkg/domain"
	"github.com/buildforge/logrotator/pkg/http/handler"
	"github.com/buildforge/logrotator/pkg/storage"
)

func ConfigRepository(db *sqlx.DB, discarders domain.DiscarderFactory) (
	*storage.ConfigRepository,
	domain.ConfigStore,
	handler.ConfigStore,
) {
	repo := storage.NewConfigRepository(db, discarders)

	return repo, repo, repo
}

func JobRepository(db *sqlx.DB, discarders domain.DiscarderFactory) (
	*storage.JobRepository,
	domain.JobRegistry,
) {
	repo := storage.NewJobRepository(db, discarders)

	return repo, repo
}

func BuildRepository(db *sqlx.DB) (
	*storage.BuildRepository,
	discard.BuildRepository,
) {
	repo := storage.NewBuildRepository(db)

	return repo, repo
}
