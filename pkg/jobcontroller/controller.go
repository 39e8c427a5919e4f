package jobcontroller

import (
	"sync"
	"time"

	"github.com/flowmesh/jetcoord/pkg/dag"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// Controller is the per-job execution coordinator. Every mutation of
// the fields below the mutex must hold mu: this is the "master lock"
// spec.md §5 requires (P4 in its testable properties).
type Controller struct {
	deps Deps

	jobID model.JobID
	cfg   model.JobConfig

	mu sync.Mutex

	status                   model.JobStatus
	requestedTerminationMode *model.TerminationMode

	record *model.JobExecutionRecord
	dag    *dag.DAG

	membersView model.MembersView
	executionID model.ExecutionID

	vertices []*dag.Vertex

	executionCompletionFuture *model.VoidFuture
	jobCompletionFuture       *model.CompletionFuture
	executionCompletionCB     *executionCompletionCallback

	jobMetrics     model.JobMetrics
	partialMetrics map[model.MemberInfo]model.RawJobMetrics

	executionStartTime int64
	monotonicStart     time.Duration
}

// New returns a Controller for jobID with a fresh NotRunning status and
// a brand new JobExecutionRecord, ready to be started with TryStartJob.
func New(jobID model.JobID, cfg model.JobConfig, quorumSize int, deps Deps) *Controller {
	return &Controller{
		deps:                      deps,
		jobID:                     jobID,
		cfg:                       cfg,
		status:                    model.NotRunning,
		record:                    model.NewJobExecutionRecord(jobID, quorumSize),
		executionCompletionFuture: model.CompletedVoidFuture(),
		jobCompletionFuture:       model.NewCompletionFuture(),
		partialMetrics:            make(map[model.MemberInfo]model.RawJobMetrics),
	}
}

// JobID returns the controller's job ID.
func (c *Controller) JobID() model.JobID {
	return c.jobID
}

// Status returns the job's current status. Callers observing this value
// to make a decision outside the lock must be prepared for it to change
// concurrently; every component in this package re-checks status under
// the lock before acting on it.
func (c *Controller) Status() model.JobStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// JobCompletionFuture returns the future that completes at most once
// across the job's entire lifetime (P1).
func (c *Controller) JobCompletionFuture() *model.CompletionFuture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobCompletionFuture
}

// JobMetrics returns the last-known merged metrics view.
func (c *Controller) JobMetrics() model.JobMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobMetrics
}

// nowMillis returns the controller's injected clock's current time in
// Unix milliseconds. Go 1.16 predates time.Time.UnixMilli, hence the
// manual conversion.
func nowMillis(c *Controller) int64 {
	return c.deps.Clock.Now().UnixNano() / int64(time.Millisecond)
}
