package cluster

import (
	"sync"

	"github.com/google/uuid"

	"github.com/flowmesh/jetcoord/pkg/model"
)

// Service is the cluster membership collaborator listed in spec.md §6:
// it reports the current MembersView, whether a quorum of the given
// size is present, whether the cluster is safe to start new work on,
// and this node's own identity.
type Service interface {
	MembersView() model.MembersView
	IsQuorumPresent(quorumSize int) bool
	ShouldStartJobs() bool
	LocalMemberUUID() string
}

// StaticService is a Service backed by an in-memory membership list,
// mutated only through AddMember/RemoveMember. It is what the
// coordinator is wired against in tests and is also a reasonable
// stand-in for a real membership service fronted by gossip/etcd
// watches, which is explicitly out of this component's scope.
type StaticService struct {
	mu sync.RWMutex

	localUUID string
	version   int64
	members   []model.MemberInfo
	safe      bool
}

// NewStaticService returns a StaticService whose local member is freshly
// allocated a UUID.
func NewStaticService(localAddr string) *StaticService {
	local := model.MemberInfo{UUID: uuid.New().String(), Address: localAddr}
	return &StaticService{
		localUUID: local.UUID,
		version:   1,
		members:   []model.MemberInfo{local},
		safe:      true,
	}
}

// MembersView implements Service.
func (s *StaticService) MembersView() model.MembersView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MemberInfo, len(s.members))
	copy(out, s.members)
	return model.MembersView{Version: s.version, Members: out}
}

// IsQuorumPresent implements Service.
func (s *StaticService) IsQuorumPresent(quorumSize int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members) >= quorumSize
}

// ShouldStartJobs implements Service.
func (s *StaticService) ShouldStartJobs() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.safe
}

// LocalMemberUUID implements Service.
func (s *StaticService) LocalMemberUUID() string {
	return s.localUUID
}

// SetSafe toggles whether the cluster is currently safe to start jobs
// on; while unsafe, TryStartJob schedules a restart instead of starting.
func (s *StaticService) SetSafe(safe bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.safe = safe
}

// AddMember appends a new member and bumps the view version.
func (s *StaticService) AddMember(addr string) model.MemberInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	mi := model.MemberInfo{UUID: uuid.New().String(), Address: addr}
	s.members = append(s.members, mi)
	s.version++
	return mi
}

// RemoveMember drops the member with the given UUID and bumps the view
// version.
func (s *StaticService) RemoveMember(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.members {
		if m.UUID == uuid {
			s.members = append(s.members[:i], s.members[i+1:]...)
			s.version++
			return
		}
	}
}
