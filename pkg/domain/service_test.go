package domain

import (
	"context"
	"io/ioutil"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// region discarderMock
type discarderMock struct {
	mock.Mock
}

func (m *discarderMock) Apply(ctx context.Context, job Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// endregion

// region configStoreMock
type configStoreMock struct {
	mock.Mock
}

func (m *configStoreMock) Load(ctx context.Context) (Config, error) {
	args := m.Called(ctx)
	return args.Get(0).(Config), args.Error(1)
}

func (m *configStoreMock) UpdateLastRotated(ctx context.Context, millis int64) error {
	args := m.Called(ctx, millis)
	return args.Error(0)
}

// endregion

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = ioutil.Discard

	return logger
}

func ruleWith(t *testing.T, pattern string, d Discarder) PatternRule {
	rule, err := NewPatternRule(pattern, d)
	if err != nil {
		t.Fatalf("unable to build rule '%s': %v", pattern, err)
	}

	return rule
}

func TestRotationService_OwnDiscarder_PolicyNone(t *testing.T) {
	own := &discarderMock{}
	global := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithOwnDiscarder: PolicyNone,
		GlobalRules:            []PatternRule{ruleWith(t, ".*", global)},
	}

	store.On("UpdateLastRotated", mock.Anything, EpochMillis(now)).Return(nil)

	svc := NewRotationService(discardLogger(), store)

	report, err := svc.Run(context.Background(), []Job{{Name: "job-1", Discarder: own}}, cfg, now)

	assert.Nil(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Applied)

	own.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	global.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRotationService_OwnDiscarder_PolicyOwn(t *testing.T) {
	own := &discarderMock{}
	global := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithOwnDiscarder: PolicyOwn,
		GlobalRules:            []PatternRule{ruleWith(t, ".*", global)},
	}

	own.On("Apply", mock.Anything, mock.AnythingOfType("Job")).Return(nil).Once()
	store.On("UpdateLastRotated", mock.Anything, EpochMillis(now)).Return(nil)

	svc := NewRotationService(discardLogger(), store)

	report, err := svc.Run(context.Background(), []Job{{Name: "job-1", Discarder: own}}, cfg, now)

	assert.Nil(t, err)
	assert.Equal(t, 1, report.Applied)

	own.AssertExpectations(t)
	global.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRotationService_OwnDiscarder_PolicyGlobal(t *testing.T) {
	own := &discarderMock{}
	global := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithOwnDiscarder: PolicyGlobal,
		GlobalRules:            []PatternRule{ruleWith(t, ".*", global)},
	}

	global.On("Apply", mock.Anything, mock.AnythingOfType("Job")).Return(nil).Once()
	store.On("UpdateLastRotated", mock.Anything, EpochMillis(now)).Return(nil)

	svc := NewRotationService(discardLogger(), store)

	report, err := svc.Run(context.Background(), []Job{{Name: "job-1", Discarder: own}}, cfg, now)

	assert.Nil(t, err)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 0, report.Results[0].RuleIndex)

	own.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	global.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRotationService_NoOwnDiscarder_PolicyNone(t *testing.T) {
	global := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithoutOwnDiscarder: PolicyNone,
		GlobalRules:               []PatternRule{ruleWith(t, ".*", global)},
	}

	store.On("UpdateLastRotated", mock.Anything, EpochMillis(now)).Return(nil)

	svc := NewRotationService(discardLogger(), store)

	report, err := svc.Run(context.Background(), []Job{{Name: "job-1"}}, cfg, now)

	assert.Nil(t, err)
	assert.Equal(t, 1, report.Skipped)

	global.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRotationService_FirstMatchingRuleWins(t *testing.T) {
	specific := &discarderMock{}
	catchall := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithoutOwnDiscarder: PolicyGlobal,
		GlobalRules: []PatternRule{
			ruleWith(t, "rotator-.*", specific),
			ruleWith(t, ".*", catchall),
		},
	}

	specific.On("Apply", mock.Anything, mock.AnythingOfType("Job")).Return(nil).Once()
	store.On("UpdateLastRotated", mock.Anything, EpochMillis(now)).Return(nil)

	svc := NewRotationService(discardLogger(), store)

	report, err := svc.Run(context.Background(), []Job{{Name: "rotator-foo"}}, cfg, now)

	assert.Nil(t, err)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 0, report.Results[0].RuleIndex)

	specific.AssertExpectations(t)
	catchall.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRotationService_NoMatchingRule(t *testing.T) {
	global := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithoutOwnDiscarder: PolicyGlobal,
		GlobalRules:               []PatternRule{ruleWith(t, "rotator-.*", global)},
	}

	store.On("UpdateLastRotated", mock.Anything, EpochMillis(now)).Return(nil)

	svc := NewRotationService(discardLogger(), store)

	report, err := svc.Run(context.Background(), []Job{{Name: "some-other-job"}}, cfg, now)

	// no rule covering the job is a normal outcome, not a failure
	assert.Nil(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	global.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRotationService_UnsupportedPolicyIsIsolated(t *testing.T) {
	own := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	// 'own' for jobs without an own discarder violates the mode contract,
	// e.g. a corrupted persisted row
	cfg := Config{
		PolicyWithoutOwnDiscarder: PolicyOwn,
		PolicyWithOwnDiscarder:    PolicyOwn,
	}

	own.On("Apply", mock.Anything, mock.AnythingOfType("Job")).Return(nil).Once()
	store.On("UpdateLastRotated", mock.Anything, EpochMillis(now)).Return(nil)

	svc := NewRotationService(discardLogger(), store)

	jobs := []Job{
		{Name: "job-without"},
		{Name: "job-with", Discarder: own},
	}

	report, err := svc.Run(context.Background(), jobs, cfg, now)

	// the bad mode is recorded against its job, the rest of the pass runs
	assert.Nil(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Applied)

	own.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRotationService_FailureIsolation(t *testing.T) {
	broken := &discarderMock{}
	healthy := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithOwnDiscarder: PolicyOwn,
	}

	broken.On("Apply", mock.Anything, mock.AnythingOfType("Job")).Return(errors.New("disk exploded")).Once()
	healthy.On("Apply", mock.Anything, mock.AnythingOfType("Job")).Return(nil).Once()
	store.On("UpdateLastRotated", mock.Anything, EpochMillis(now)).Return(nil).Once()

	svc := NewRotationService(discardLogger(), store)

	jobs := []Job{
		{Name: "job-1", Discarder: broken},
		{Name: "job-2", Discarder: healthy},
	}

	report, err := svc.Run(context.Background(), jobs, cfg, now)

	// one bad job never aborts the pass, and the pass still counts
	assert.Nil(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, "disk exploded", report.Results[0].Reason)

	broken.AssertExpectations(t)
	healthy.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRotationService_CancellationAbortsPass(t *testing.T) {
	cancelled := &discarderMock{}
	never := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithOwnDiscarder: PolicyOwn,
	}

	cancelled.On("Apply", mock.Anything, mock.AnythingOfType("Job")).Return(context.Canceled).Once()

	svc := NewRotationService(discardLogger(), store)

	jobs := []Job{
		{Name: "job-1", Discarder: cancelled},
		{Name: "job-2", Discarder: never},
	}

	_, err := svc.Run(context.Background(), jobs, cfg, now)

	assert.Equal(t, context.Canceled, errors.Cause(err))

	// remaining jobs are not processed and the timestamp does not advance,
	// so the whole pass is retried from scratch on the next tick
	never.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "UpdateLastRotated", mock.Anything, mock.Anything)
}

func TestRotationService_WrappedCancellationAbortsPass(t *testing.T) {
	cancelled := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithOwnDiscarder: PolicyOwn,
	}

	cancelled.On("Apply", mock.Anything, mock.AnythingOfType("Job")).
		Return(errors.Wrap(context.DeadlineExceeded, "waiting for storage")).Once()

	svc := NewRotationService(discardLogger(), store)

	_, err := svc.Run(context.Background(), []Job{{Name: "job-1", Discarder: cancelled}}, cfg, now)

	assert.True(t, IsCancellation(err))
	store.AssertNotCalled(t, "UpdateLastRotated", mock.Anything, mock.Anything)
}

func TestRotationService_ContextCancelledBetweenJobs(t *testing.T) {
	never := &discarderMock{}
	store := &configStoreMock{}

	now := time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)

	cfg := Config{
		PolicyWithOwnDiscarder: PolicyOwn,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewRotationService(discardLogger(), store)

	_, err := svc.Run(ctx, []Job{{Name: "job-1", Discarder: never}}, cfg, now)

	assert.Equal(t, context.Canceled, errors.Cause(err))

	never.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "UpdateLastRotated", mock.Anything, mock.Anything)
}
