package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/buildforge/logrotator/pkg/appcontext"
	"github.com/buildforge/logrotator/pkg/domain"
)

type ConfigStore interface {
	Load(context.Context) (domain.Config, error)
}

type ReportSource interface {
	LastReport() (domain.RunReport, bool)
}

// RotationStatusHandler exposes the rotation configuration and the outcome
// of the most recent pass for operators and the platform UI.
type RotationStatusHandler struct {
	logger  logrus.FieldLogger
	store   ConfigStore
	reports ReportSource
}

func NewRotationStatusHandler(logger logrus.FieldLogger, store ConfigStore, reports ReportSource) *RotationStatusHandler {
	return &RotationStatusHandler{
		logger:  logger,
		store:   store,
		reports: reports,
	}
}

type rotationStatusResponse struct {
	Enabled             bool     `json:"enabled"`
	UpdateIntervalHours int      `json:"update_interval_hours"`
	LastRotatedAt       int64    `json:"last_rotated_at_mtime"`
	GlobalRules         []string `json:"global_rules"`

	LastRun *lastRunResponse `json:"last_run,omitempty"`
}

type lastRunResponse struct {
	StartedAt  int64 `json:"started_at_mtime"`
	FinishedAt int64 `json:"finished_at_mtime"`

	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`

	Failures []jobFailureResponse `json:"failures,omitempty"`
}

type jobFailureResponse struct {
	Job       string `json:"job"`
	RuleIndex int    `json:"rule_index"`
	Reason    string `json:"reason"`
}

func (h *RotationStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	logger := appcontext.LoggerFromContext(h.logger, ctx)

	cfg, err := h.store.Load(ctx)
	if err != nil {
		logger.WithError(err).Error("Unable to load rotation config")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	patterns := make([]string, 0, len(cfg.GlobalRules))
	for _, rule := range cfg.GlobalRules {
		patterns = append(patterns, rule.Pattern())
	}

	result := rotationStatusResponse{
		Enabled:             cfg.RotationEnabled,
		UpdateIntervalHours: cfg.UpdateIntervalHours,
		LastRotatedAt:       cfg.LastRotated,
		GlobalRules:         patterns,
	}

	if report, ok := h.reports.LastReport(); ok {
		lastRun := &lastRunResponse{
			StartedAt:  domain.EpochMillis(report.StartedAt),
			FinishedAt: domain.EpochMillis(report.FinishedAt),
			Applied:    report.Applied,
			Skipped:    report.Skipped,
			Failed:     report.Failed,
		}

		for _, res := range report.Results {
			if res.Outcome != domain.OutcomeFailed {
				continue
			}

			lastRun.Failures = append(lastRun.Failures, jobFailureResponse{
				Job:       res.Job,
				RuleIndex: res.RuleIndex,
				Reason:    res.Reason,
			})
		}

		result.LastRun = lastRun
	}

	enc := json.NewEncoder(w)
	err = enc.Encode(result)
	if err != nil {
		logger.WithError(err).Error("Unable to encode response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}
