package serverfx

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/buildforge/logrotator/pkg/domain"
	"github.com/buildforge/logrotator/pkg/http/handler"
)

func RotationStatusHandler(
	logger *logrus.Logger,
	store handler.ConfigStore,
	manager *domain.RotationManager,
) *handler.RotationStatusHandler {
	return handler.NewRotationStatusHandler(logger, store, manager)
}

func RegisterRotationStatusHandler(router *mux.Router, h *handler.RotationStatusHandler) {
	router.Handle("/rotation/status", h)
}
