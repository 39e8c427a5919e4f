package jobstore

import (
	"context"
	"sync"

	derror "github.com/flowmesh/jetcoord/pkg/errors"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// InMemoryStore is a Store backed by process memory, for local/dev
// deployments of jetcoordd with no etcd cluster available and for
// tests that only need the Store contract, not etcd itself.
type InMemoryStore struct {
	mu           sync.Mutex
	records      map[model.JobID]*model.JobExecutionRecord
	dags         map[model.JobID][]byte
	snapshotMaps map[string]bool
}

// NewInMemoryStore returns an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:      make(map[model.JobID]*model.JobExecutionRecord),
		dags:         make(map[model.JobID][]byte),
		snapshotMaps: make(map[string]bool),
	}
}

// ReadExecutionRecord implements Store.
func (s *InMemoryStore) ReadExecutionRecord(_ context.Context, jobID model.JobID) (*model.JobExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[jobID], nil
}

// WriteExecutionRecord implements Store.
func (s *InMemoryStore) WriteExecutionRecord(_ context.Context, rec *model.JobExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.JobID] = &cp
	return nil
}

// ReadDAG implements Store.
func (s *InMemoryStore) ReadDAG(_ context.Context, jobID model.JobID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bytes, ok := s.dags[jobID]
	if !ok {
		return nil, derror.ErrJobNotFound.GenWithStackByArgs(jobID)
	}
	return bytes, nil
}

// PutDAG registers the serialized DAG bytes for jobID, called by the
// submission path before a controller is created for it.
func (s *InMemoryStore) PutDAG(jobID model.JobID, bytes []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dags[jobID] = bytes
}

// SnapshotMapExists implements Store.
func (s *InMemoryStore) SnapshotMapExists(_ context.Context, mapName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotMaps[mapName], nil
}

// RegisterSnapshotMap marks mapName as present.
func (s *InMemoryStore) RegisterSnapshotMap(mapName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotMaps[mapName] = true
}

var _ Store = (*InMemoryStore)(nil)
