package jobcontroller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/flowmesh/jetcoord/pkg/clock"
	"github.com/flowmesh/jetcoord/pkg/cluster"
	"github.com/flowmesh/jetcoord/pkg/coordination"
	"github.com/flowmesh/jetcoord/pkg/dag"
	"github.com/flowmesh/jetcoord/pkg/jobstore"
	"github.com/flowmesh/jetcoord/pkg/model"
	"github.com/flowmesh/jetcoord/pkg/planbuilder"
	"github.com/flowmesh/jetcoord/pkg/snapshotctx"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeInvoker is a hand-written test double for cluster.Invoker. This
// module's one concrete Invoker (cluster.NewInvoker) is exercised
// against a fake ParticipantTransport in pkg/cluster's own tests; here the
// coordinator needs full control over which op types get which
// responses, which a generated golang/mock double would need the same
// amount of per-test configuration to provide.
type fakeInvoker struct {
	mu sync.Mutex

	initResponse    func(model.MemberInfo) cluster.Response
	startResponse   func(model.MemberInfo) cluster.Response
	metricsResponse func(model.MemberInfo) cluster.Response
	// terminateCount counts TerminateExecution broadcasts (one per
	// InvokeOnParticipants call), not the per-participant operations.
	terminateCount int
	terminateModes []model.TerminationMode
}

func (f *fakeInvoker) InvokeOnParticipants(
	ctx context.Context,
	participants []model.MemberInfo,
	ctor cluster.OperationCtor,
	onResponse func(model.MemberInfo, cluster.Response),
	onComplete func(map[model.MemberInfo]cluster.Response),
	retryOnPartitionMigration bool,
) {
	go func() {
		responses := make(map[model.MemberInfo]cluster.Response, len(participants))
		terminateCounted := false
		for _, m := range participants {
			op := ctor(m)
			var resp cluster.Response
			switch o := op.(type) {
			case cluster.InitExecutionOp:
				resp = f.initResponse(m)
			case cluster.StartExecutionOp:
				resp = f.startResponse(m)
			case cluster.TerminateExecutionOp:
				f.mu.Lock()
				if !terminateCounted {
					f.terminateCount++
					terminateCounted = true
				}
				f.terminateModes = append(f.terminateModes, o.Mode)
				f.mu.Unlock()
				resp = cluster.Success(nil)
			case cluster.GetLocalJobMetricsOp:
				resp = f.metricsResponse(m)
			}
			responses[m] = resp
			if onResponse != nil {
				onResponse(m, resp)
			}
		}
		if onComplete != nil {
			onComplete(responses)
		}
	}()
}

func (f *fakeInvoker) TerminateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminateCount
}

// fakeStore is an in-memory jobstore.Store test double.
type fakeStore struct {
	mu      sync.Mutex
	records map[model.JobID]*model.JobExecutionRecord
	dags    map[model.JobID][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[model.JobID]*model.JobExecutionRecord),
		dags:    make(map[model.JobID][]byte),
	}
}

func (s *fakeStore) ReadExecutionRecord(ctx context.Context, jobID model.JobID) (*model.JobExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[jobID], nil
}

func (s *fakeStore) WriteExecutionRecord(ctx context.Context, rec *model.JobExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.JobID] = &cp
	return nil
}

func (s *fakeStore) ReadDAG(ctx context.Context, jobID model.JobID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dags[jobID], nil
}

func (s *fakeStore) SnapshotMapExists(ctx context.Context, mapName string) (bool, error) {
	return true, nil
}

var _ jobstore.Store = (*fakeStore)(nil)

func threeMembers() model.MembersView {
	return model.MembersView{
		Version: 1,
		Members: []model.MemberInfo{
			{UUID: "a", Address: "10.0.0.1:9000"},
			{UUID: "b", Address: "10.0.0.2:9000"},
			{UUID: "c", Address: "10.0.0.3:9000"},
		},
	}
}

type testHarness struct {
	controller  *Controller
	invoker     *fakeInvoker
	membership  *cluster.StaticService
	store       *fakeStore
	snapshotCtx *snapshotctx.InMemoryContext
	clock       *clock.Mock
	execDone    chan model.JobID
}

func newHarness(t *testing.T, cfg model.JobConfig) *testHarness {
	mv := threeMembers()
	membership := cluster.NewStaticService(mv.Members[0].Address)
	// Replace the single auto-generated local member with three members
	// at the fixed view's addresses. AddMember assigns each a fresh UUID,
	// so the live members' UUIDs differ from threeMembers()'s.
	membership.RemoveMember(membership.LocalMemberUUID())
	for _, m := range mv.Members {
		membership.AddMember(m.Address)
	}

	store := newFakeStore()
	store.dags[1] = []byte("dag-1")

	invoker := &fakeInvoker{
		initResponse:    func(model.MemberInfo) cluster.Response { return cluster.Success(nil) },
		startResponse:   func(model.MemberInfo) cluster.Response { return cluster.Success(model.RawJobMetrics{}) },
		metricsResponse: func(model.MemberInfo) cluster.Response { return cluster.Success(model.RawJobMetrics{}) },
	}

	mockClock := clock.NewMock()
	snapCtx := snapshotctx.NewInMemoryContext()

	execDone := make(chan model.JobID, 8)
	localExec := coordination.NewLocalExecutionService(mockClock)
	coordSvc := coordination.NewLocalService(mockClock, func(jobID model.JobID) {
		execDone <- jobID
	}, func(model.JobID, int64, error) error { return nil })
	t.Cleanup(coordSvc.Close)

	idCounter := int64(0)
	idGen := func() model.ExecutionID {
		idCounter++
		return model.ExecutionID(idCounter)
	}

	deps := Deps{
		Membership:        membership,
		Invoker:           invoker,
		Store:             store,
		SnapshotContext:   snapCtx,
		SnapshotValidator: &snapshotctx.StoreValidator{Store: store},
		Coordination:      coordSvc,
		ExecutionService:  localExec,
		PlanBuilder:       planbuilder.Build,
		DAGLoader: func(serialized []byte) (*dag.DAG, error) {
			d := dag.New()
			d.NewVertex("source", dag.NopProcessorSupplier{})
			d.NewVertex("sink", dag.NopProcessorSupplier{})
			return d, nil
		},
		Clock:               mockClock,
		ExecutionIDSupplier: idGen,
	}

	c := New(1, cfg, 3, deps)

	return &testHarness{
		controller:  c,
		invoker:     invoker,
		membership:  membership,
		store:       store,
		snapshotCtx: snapCtx,
		clock:       mockClock,
		execDone:    execDone,
	}
}

func waitStatus(t *testing.T, c *Controller, want model.JobStatus, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.Status() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, want, c.Status(), "status did not converge in time")
}

func TestHappyPathCompletes(t *testing.T) {
	h := newHarness(t, model.JobConfig{})

	h.controller.TryStartJob(nil)

	waitStatus(t, h.controller, model.Completed, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := h.controller.JobCompletionFuture().Wait(ctx)
	require.NoError(t, err)
}

func TestForcefulCancelWhileRunning(t *testing.T) {
	h := newHarness(t, model.JobConfig{})

	// StartExecution blocks until the test releases it, modeling
	// participants that only reply once they observe the broadcast
	// TerminateExecution and stop cooperatively.
	gate := make(chan struct{})
	h.invoker.startResponse = func(model.MemberInfo) cluster.Response {
		<-gate
		return cluster.Failure(model.ErrCancelled)
	}

	h.controller.TryStartJob(nil)
	waitStatus(t, h.controller, model.Running, 2*time.Second)

	future, rejectReason := h.controller.RequestTermination(model.CancelForceful, false)
	require.NoError(t, rejectReason)
	require.NotNil(t, future)

	close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, future.Wait(ctx))

	err := h.controller.JobCompletionFuture().Wait(ctx)
	require.Error(t, err)
	require.Equal(t, model.ErrCancelled, err)

	require.Equal(t, model.Failed, h.controller.Status())
	require.Equal(t, 1, h.invoker.TerminateCount())
}

func TestTopologyChangeSchedulesRestart(t *testing.T) {
	h := newHarness(t, model.JobConfig{AutoScaling: true})

	// Block the real phase-B dispatch until the test returns so its own
	// completion callback does not fire during the test; the test drives
	// onStartExecutionCompleted directly below to simulate member b
	// leaving mid-execution.
	blockCh := make(chan struct{})
	defer close(blockCh)
	h.invoker.startResponse = func(model.MemberInfo) cluster.Response {
		<-blockCh
		return cluster.Success(model.RawJobMetrics{})
	}

	h.controller.TryStartJob(nil)
	waitStatus(t, h.controller, model.Running, 2*time.Second)

	responses := map[model.MemberInfo]cluster.Response{
		{UUID: "a", Address: "10.0.0.1:9000"}: cluster.Success(model.RawJobMetrics{}),
		{UUID: "b", Address: "10.0.0.2:9000"}: cluster.Failure(model.MemberLeftError{UUID: "b"}),
		{UUID: "c", Address: "10.0.0.3:9000"}: cluster.Success(model.RawJobMetrics{}),
	}
	h.controller.onStartExecutionCompleted(responses, 3)

	waitStatus(t, h.controller, model.NotRunning, 2*time.Second)

	// scheduleRestartLocked hands off to the coordination service on its
	// own goroutine; give it a moment to register its timer before
	// advancing the mock clock past it.
	time.Sleep(50 * time.Millisecond)
	h.clock.Add(200 * time.Millisecond)

	select {
	case jobID := <-h.execDone:
		require.Equal(t, model.JobID(1), jobID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a scheduled restart")
	}
}

func TestSuspendOnRestartableFailureWithoutAutoscaling(t *testing.T) {
	h := newHarness(t, model.JobConfig{
		AutoScaling:         false,
		ProcessingGuarantee: model.GuaranteeAtLeastOnce,
	})

	blockCh := make(chan struct{})
	defer close(blockCh)
	h.invoker.startResponse = func(model.MemberInfo) cluster.Response {
		<-blockCh
		return cluster.Success(model.RawJobMetrics{})
	}

	h.controller.TryStartJob(nil)
	waitStatus(t, h.controller, model.Running, 2*time.Second)

	failure := model.UserError{Cause: context.DeadlineExceeded, Restartable: true}
	h.controller.finalizeJob(failure)

	waitStatus(t, h.controller, model.Suspended, 2*time.Second)

	require.False(t, h.controller.JobCompletionFuture().IsDone())
	require.True(t, h.store.records[1].Suspended)
}
