// Package coordination models the coordination service and execution
// service external collaborators of spec.md §6: scheduling job
// restarts, completing jobs, and running scheduled/async callbacks.
package coordination

import (
	"sync"
	"time"

	"github.com/edwingeng/deque"

	"github.com/flowmesh/jetcoord/pkg/clock"
	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// Service is the coordination-service collaborator: the thing that
// actually owns job restart scheduling and final job completion once
// the per-job controller has decided an outcome.
type Service interface {
	// ScheduleRestart asks that tryStartJob be re-invoked for jobID
	// after a delay, used when quorum is absent, the cluster isn't safe,
	// or a restartable failure occurred with autoscaling enabled.
	ScheduleRestart(jobID model.JobID)

	// RestartJob asks that the job restart immediately, used when a
	// termination's ActionAfterTerminate is Restart.
	RestartJob(jobID model.JobID)

	// CompleteJob asks the coordination service to durably record the
	// job's terminal outcome; the returned future resolves once that
	// has happened (it is not the same future as JobCompletionFuture,
	// which the per-job controller completes after this resolves).
	CompleteJob(jobID model.JobID, timestampMillis int64, failure error) *model.VoidFuture
}

// RestartHandler is invoked (by whatever drives the Service's queue) to
// actually re-attempt starting a job.
type RestartHandler func(jobID model.JobID)

// CompleteHandler durably records jobID's terminal outcome.
type CompleteHandler func(jobID model.JobID, timestampMillis int64, failure error) error

// LocalService is a Service implementation suitable for a single-process
// coordinator and for tests: restarts are deduplicated by job ID in a
// FIFO held in an edwingeng/deque, drained by a background goroutine, the
// same data structure shape the teacher's event-queue code uses (see
// lib/master/worker_manager.go) generalized from a channel to a
// de-duplicating queue since a job already queued for restart should not
// be queued twice.
type LocalService struct {
	mu       sync.Mutex
	pending  map[model.JobID]bool
	queue    deque.Deque
	wakeCh   chan struct{}
	clock    clock.Clock
	restart  RestartHandler
	complete CompleteHandler

	closeCh chan struct{}
	once    sync.Once
}

// NewLocalService returns a LocalService and starts its background
// restart-draining goroutine.
func NewLocalService(clk clock.Clock, restart RestartHandler, complete CompleteHandler) *LocalService {
	s := &LocalService{
		pending:  make(map[model.JobID]bool),
		queue:    deque.NewDeque(),
		wakeCh:   make(chan struct{}, 1),
		clock:    clk,
		restart:  restart,
		complete: complete,
		closeCh:  make(chan struct{}),
	}
	go s.drain()
	return s
}

// Close stops the background drain loop.
func (s *LocalService) Close() {
	s.once.Do(func() { close(s.closeCh) })
}

// ScheduleRestart implements Service. The restart is delayed slightly so
// a flapping quorum doesn't cause a restart storm, mirroring the
// teacher's use of a short backoff before retrying cluster operations.
// The job counts as pending from this call on, so further requests for
// it before the restart runs are dropped.
func (s *LocalService) ScheduleRestart(jobID model.JobID) {
	s.mu.Lock()
	if s.pending[jobID] {
		s.mu.Unlock()
		return
	}
	s.pending[jobID] = true
	s.mu.Unlock()

	s.clock.AfterFunc(200*time.Millisecond, func() {
		s.mu.Lock()
		s.queue.PushBack(jobID)
		s.mu.Unlock()
		select {
		case s.wakeCh <- struct{}{}:
		default:
		}
	})
}

// RestartJob implements Service: no delay, restart right away.
func (s *LocalService) RestartJob(jobID model.JobID) {
	s.enqueueRestart(jobID)
}

func (s *LocalService) enqueueRestart(jobID model.JobID) {
	s.mu.Lock()
	if s.pending[jobID] {
		s.mu.Unlock()
		return
	}
	s.pending[jobID] = true
	s.queue.PushBack(jobID)
	s.mu.Unlock()

	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

func (s *LocalService) drain() {
	for {
		select {
		case <-s.closeCh:
			return
		case <-s.wakeCh:
		}
		for {
			s.mu.Lock()
			if s.queue.Empty() {
				s.mu.Unlock()
				break
			}
			jobID := s.queue.PopFront().(model.JobID)
			delete(s.pending, jobID)
			s.mu.Unlock()

			s.restart(jobID)
		}
	}
}

// CompleteJob implements Service.
func (s *LocalService) CompleteJob(jobID model.JobID, timestampMillis int64, failure error) *model.VoidFuture {
	future := model.NewVoidFuture()
	go func() {
		defer future.Complete()
		if err := s.complete(jobID, timestampMillis, failure); err != nil {
			log.L().Warn("completing job failed",
				log.Int64("job-id", int64(jobID)), log.Error(err))
		}
	}()
	return future
}

// ExecutionService is the scheduling/async-executor collaborator of
// spec.md §6: schedule(task, delay, unit) and a general async executor.
// The Metrics Aggregator's 100ms retry goes through Schedule;
// TerminateExecution broadcasts go through the cluster Invoker instead.
type ExecutionService interface {
	Schedule(delay time.Duration, task func())
	Async(task func())
}

// LocalExecutionService runs scheduled/async tasks on goroutines timed
// by an injectable clock.Clock, so tests can use a mock clock instead of
// real sleeps.
type LocalExecutionService struct {
	clock clock.Clock
}

// NewLocalExecutionService returns an ExecutionService driven by clk.
func NewLocalExecutionService(clk clock.Clock) *LocalExecutionService {
	return &LocalExecutionService{clock: clk}
}

// Schedule implements ExecutionService.
func (s *LocalExecutionService) Schedule(delay time.Duration, task func()) {
	s.clock.AfterFunc(delay, task)
}

// Async implements ExecutionService.
func (s *LocalExecutionService) Async(task func()) {
	go task()
}
