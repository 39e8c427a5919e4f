// Package jobstore persists the coordinator's per-job state: the
// JobExecutionRecord, the serialized DAG bytes, and lookups for named
// snapshot maps. It is the "job store" external collaborator of
// spec.md §6.
package jobstore

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/etcd/clientv3"

	derror "github.com/flowmesh/jetcoord/pkg/errors"
	"github.com/flowmesh/jetcoord/pkg/model"
)

const keyPrefix = "/jet/jobs/"

// Store is the persistence boundary for job execution state.
type Store interface {
	ReadExecutionRecord(ctx context.Context, jobID model.JobID) (*model.JobExecutionRecord, error)
	WriteExecutionRecord(ctx context.Context, rec *model.JobExecutionRecord) error

	// ReadDAG returns the serialized DAG bytes stored for jobID when the
	// job was submitted.
	ReadDAG(ctx context.Context, jobID model.JobID) ([]byte, error)

	// SnapshotMapExists reports whether a map with the given name exists
	// in the cluster's storage, used to validate a restore source before
	// it is used (C9).
	SnapshotMapExists(ctx context.Context, mapName string) (bool, error)
}

// EtcdStore is a Store backed by etcd, the same client library the
// teacher's master/cluster package uses for executor and scheduler
// metadata.
type EtcdStore struct {
	cli          *clientv3.Client
	dag          map[model.JobID][]byte // in-memory until a real DAG store is wired
	snapshotMaps map[string]bool
}

// NewEtcdStore returns a Store backed by cli.
func NewEtcdStore(cli *clientv3.Client) *EtcdStore {
	return &EtcdStore{
		cli:          cli,
		dag:          make(map[model.JobID][]byte),
		snapshotMaps: make(map[string]bool),
	}
}

func recordKey(jobID model.JobID) string {
	return fmt.Sprintf("%s%d/record", keyPrefix, jobID)
}

// ReadExecutionRecord implements Store.
func (s *EtcdStore) ReadExecutionRecord(ctx context.Context, jobID model.JobID) (*model.JobExecutionRecord, error) {
	resp, err := s.cli.Get(ctx, recordKey(jobID))
	if err != nil {
		return nil, derror.ErrJobStoreUnavailable.Wrap(err).GenWithStackByArgs()
	}
	if len(resp.Kvs) == 0 {
		return nil, nil
	}
	var rec model.JobExecutionRecord
	if err := json.Unmarshal(resp.Kvs[0].Value, &rec); err != nil {
		return nil, derror.ErrJobStoreUnavailable.Wrap(err).GenWithStackByArgs()
	}
	return &rec, nil
}

// WriteExecutionRecord implements Store.
func (s *EtcdStore) WriteExecutionRecord(ctx context.Context, rec *model.JobExecutionRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return derror.ErrJobStoreUnavailable.Wrap(err).GenWithStackByArgs()
	}
	if _, err := s.cli.Put(ctx, recordKey(rec.JobID), string(value)); err != nil {
		return derror.ErrJobStoreUnavailable.Wrap(err).GenWithStackByArgs()
	}
	return nil
}

// ReadDAG implements Store.
func (s *EtcdStore) ReadDAG(_ context.Context, jobID model.JobID) ([]byte, error) {
	bytes, ok := s.dag[jobID]
	if !ok {
		return nil, derror.ErrJobNotFound.GenWithStackByArgs(fmt.Sprintf("%d", jobID))
	}
	return bytes, nil
}

// PutDAG registers the serialized DAG bytes for jobID, called once at
// job submission time.
func (s *EtcdStore) PutDAG(jobID model.JobID, bytes []byte) {
	s.dag[jobID] = bytes
}

// SnapshotMapExists implements Store.
func (s *EtcdStore) SnapshotMapExists(_ context.Context, mapName string) (bool, error) {
	return s.snapshotMaps[mapName], nil
}

// RegisterSnapshotMap marks mapName as present, used by the snapshot
// scheduler (out of scope) once it finishes exporting a snapshot.
func (s *EtcdStore) RegisterSnapshotMap(mapName string) {
	s.snapshotMaps[mapName] = true
}
