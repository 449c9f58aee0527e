package domain

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RotationManager is the externally driven entry point of the rotation core.
// The cron calls Tick at a fixed cadence (much shorter than any sensible
// rotation interval); Tick itself decides whether a pass is actually due.
type RotationManager struct {
	logger logrus.FieldLogger

	store   ConfigStore
	jobs    JobRegistry
	service rotationService

	cron     cron
	tickSpec string

	mu         sync.Mutex
	lastReport *RunReport
}

type rotationService interface {
	Run(ctx context.Context, jobs []Job, cfg Config, now time.Time) (RunReport, error)
}

type cron interface {
	AddFunc(spec string, cmd func()) error
	Start()
}

func NewRotationManager(
	logger logrus.FieldLogger,
	store ConfigStore,
	jobs JobRegistry,
	service rotationService,
	cron cron,
	tickSpec string,
) *RotationManager {
	return &RotationManager{
		logger: logger,

		store:   store,
		jobs:    jobs,
		service: service,

		cron:     cron,
		tickSpec: tickSpec,
	}
}

func (m *RotationManager) Run() {
	err := m.cron.AddFunc(m.tickSpec, func() {
		if err := m.Tick(context.Background(), time.Now()); err != nil && !IsCancellation(err) {
			m.logger.WithError(err).Error("Rotation tick failed")
		}
	})
	if err != nil {
		m.logger.WithField("spec", m.tickSpec).Fatalf("Invalid cron spec: '%s'", m.tickSpec)
	}

	m.logger.Debug("Starting cron")
	m.cron.Start()
}

// Tick loads a fresh configuration snapshot and runs at most one pass. Two
// ticks in close succession still perform at most one sweep: the second one
// observes the advanced last-rotated timestamp and bails out.
func (m *RotationManager) Tick(ctx context.Context, now time.Time) error {
	cfg, err := m.store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to load rotation config")
	}

	if !ShouldRotate(cfg, now) {
		return nil
	}

	m.logger.Info("Starting to apply build rotation rules")

	jobs, err := m.jobs.AllJobs(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to enumerate jobs")
	}

	report, err := m.service.Run(ctx, jobs, cfg, now)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.lastReport = &report
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"total_jobs": len(jobs),
		"applied":    report.Applied,
		"skipped":    report.Skipped,
		"failed":     report.Failed,
	}).Info("Finished applying build rotation rules")

	return nil
}

// LastReport returns the report of the most recent completed pass, if any.
func (m *RotationManager) LastReport() (RunReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport == nil {
		return RunReport{}, false
	}

	return *m.lastReport, true
}
