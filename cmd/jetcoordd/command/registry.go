package command

import (
	"context"
	"sync"

	"github.com/flowmesh/jetcoord/pkg/clock"
	"github.com/flowmesh/jetcoord/pkg/cluster"
	"github.com/flowmesh/jetcoord/pkg/coordination"
	"github.com/flowmesh/jetcoord/pkg/jobcontroller"
	"github.com/flowmesh/jetcoord/pkg/jobstore"
	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
	"github.com/flowmesh/jetcoord/pkg/planbuilder"
	"github.com/flowmesh/jetcoord/pkg/snapshotctx"
)

// registry owns one jobcontroller.Controller per live job. Every
// controller it creates is wired against the registry's own
// coordination.LocalService, whose restart and completion handlers are
// the registry's, so a scheduled restart or completion always routes
// back to the right controller by JobID.
type registry struct {
	mu          sync.Mutex
	controllers map[model.JobID]*jobcontroller.Controller

	store      jobstore.Store
	membership *cluster.StaticService
	invoker    cluster.Invoker
	clock      clock.Clock
	execSvc    coordination.ExecutionService
	coord      *coordination.LocalService
	idGen      model.ExecutionIDSupplier
}

func newRegistry(store jobstore.Store, membership *cluster.StaticService, invoker cluster.Invoker, clk clock.Clock) *registry {
	r := &registry{
		controllers: make(map[model.JobID]*jobcontroller.Controller),
		store:       store,
		membership:  membership,
		invoker:     invoker,
		clock:       clk,
		execSvc:     coordination.NewLocalExecutionService(clk),
		idGen:       newExecutionIDGenerator(),
	}
	r.coord = coordination.NewLocalService(clk, r.restartHandler, r.completeHandler)
	return r
}

// Close releases the registry's background coordination goroutine.
func (r *registry) Close() {
	r.coord.Close()
}

// dagWriter is implemented by the store backends this module ships
// (InMemoryStore, EtcdStore) to register the DAG bytes a job is
// submitted with; it is not part of the Store contract jobcontroller
// depends on, since the controller only ever reads a DAG back.
type dagWriter interface {
	PutDAG(jobID model.JobID, bytes []byte)
}

// Submit creates a controller for jobID if one does not already exist
// and kicks off its first start attempt.
func (r *registry) Submit(jobID model.JobID, dagBytes []byte, cfg model.JobConfig, quorumSize int) *jobcontroller.Controller {
	r.mu.Lock()
	if c, ok := r.controllers[jobID]; ok {
		r.mu.Unlock()
		return c
	}

	if writer, ok := r.store.(dagWriter); ok {
		writer.PutDAG(jobID, dagBytes)
	}

	c := jobcontroller.New(jobID, cfg, quorumSize, r.depsFor())
	r.controllers[jobID] = c
	r.mu.Unlock()

	if err := r.store.WriteExecutionRecord(context.Background(), model.NewJobExecutionRecord(jobID, quorumSize)); err != nil {
		log.L().Error("failed to persist initial job record", log.Int64("job-id", int64(jobID)), log.Error(err))
	}

	c.TryStartJob(r.idGen)
	return c
}

// Get returns the controller for jobID, or nil if none exists.
func (r *registry) Get(jobID model.JobID) *jobcontroller.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controllers[jobID]
}

// depsFor builds the Deps bundle shared by every controller the
// registry creates; every field is stateless or itself safe to share
// across jobs except SnapshotContext, which is per-job.
func (r *registry) depsFor() jobcontroller.Deps {
	return jobcontroller.Deps{
		Membership:          r.membership,
		Invoker:             r.invoker,
		Store:               r.store,
		SnapshotContext:     snapshotctx.NewInMemoryContext(),
		SnapshotValidator:   &snapshotctx.StoreValidator{Store: r.store},
		Coordination:        r.coord,
		ExecutionService:    r.execSvc,
		PlanBuilder:         planbuilder.Build,
		DAGLoader:           jsonDAGLoader,
		Clock:               r.clock,
		ExecutionIDSupplier: r.idGen,
	}
}

// restartHandler adapts the registry into a coordination.RestartHandler.
func (r *registry) restartHandler(jobID model.JobID) {
	c := r.Get(jobID)
	if c == nil {
		log.L().Warn("scheduled restart for unknown job", log.Int64("job-id", int64(jobID)))
		return
	}
	c.TryStartJob(r.idGen)
}

// completeHandler adapts the registry into a coordination.CompleteHandler.
func (r *registry) completeHandler(jobID model.JobID, _ int64, _ error) error {
	rec, err := r.store.ReadExecutionRecord(context.Background(), jobID)
	if err != nil || rec == nil {
		return err
	}
	rec.MarkExecuted()
	return r.store.WriteExecutionRecord(context.Background(), rec)
}

// newExecutionIDGenerator returns an ExecutionIDSupplier that is
// strictly increasing across one process's lifetime.
func newExecutionIDGenerator() model.ExecutionIDSupplier {
	var n int64
	var mu sync.Mutex
	return func() model.ExecutionID {
		mu.Lock()
		defer mu.Unlock()
		n++
		return model.ExecutionID(n)
	}
}
