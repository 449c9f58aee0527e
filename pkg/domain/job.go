package domain

import "context"

// Job is a build job managed by the host platform. Jobs are read-only for
// the rotation core: the registry enumerates them and a pass decides what to
// do with their build records.
type Job struct {
	// Name is the fully-qualified job name, unique within the platform.
	Name string

	// Discarder is the job's own discard policy, nil when the job does not
	// define one.
	Discarder Discarder
}

func (j Job) HasOwnDiscarder() bool {
	return j.Discarder != nil
}

type JobRegistry interface {
	AllJobs(context.Context) ([]Job, error)
}

// Discarder deletes or retains old build records for a single job. The
// rotation core invokes it as a black box.
type Discarder interface {
	Apply(context.Context, Job) error
}

// RetentionSpec is the persisted shape of a discard policy: keep at most
// BuildsToKeep builds plus every build younger than DaysToKeep days. A value
// <= 0 leaves that axis unbounded.
type RetentionSpec struct {
	DaysToKeep   int `mapstructure:"days_to_keep"`
	BuildsToKeep int `mapstructure:"builds_to_keep"`
}

type DiscarderFactory interface {
	Discarder(RetentionSpec) Discarder
}
