package appcontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextId int

const (
	jobNameKeyId contextId = iota
	ruleIndexKeyId
	requestIdKeyId
)

func WithJobName(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, jobNameKeyId, job)
}

func WithRuleIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, ruleIndexKeyId, index)
}

func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdKeyId, requestId)
}

func LoggerFromContext(logger logrus.FieldLogger, ctx context.Context) logrus.FieldLogger {
	if ctx == nil {
		return logger
	}

	result := logger

	if ctxJobName, ok := ctx.Value(jobNameKeyId).(string); ok && ctxJobName != "" {
		result = result.WithField("job", ctxJobName)
	}

	if ctxRuleIndex, ok := ctx.Value(ruleIndexKeyId).(int); ok && ctxRuleIndex >= 0 {
		result = result.WithField("rule_index", ctxRuleIndex)
	}

	if ctxRequestId, ok := ctx.Value(requestIdKeyId).(string); ok && ctxRequestId != "" {
		result = result.WithField("request_id", ctxRequestId)
	}

	return result
}
