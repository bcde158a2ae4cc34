// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/erasmus-writer/resource-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	members       map[generic.MemberID]generic.ProjectMember
	memberOrder   []generic.MemberID
	partners      map[generic.PartnerID]generic.Partner
	standardCosts map[gridKey]generic.StandardCost
	availability  map[availabilityKey]generic.UserAvailability
	assignments   map[generic.UserID][]generic.Assignment
}

type gridKey struct {
	Nation string
	Role   string
}

type availabilityKey struct {
	UserID generic.UserID
	Year   int
}

func NewMemory() *Memory {
	return &Memory{
		members:       make(map[generic.MemberID]generic.ProjectMember),
		partners:      make(map[generic.PartnerID]generic.Partner),
		standardCosts: make(map[gridKey]generic.StandardCost),
		availability:  make(map[availabilityKey]generic.UserAvailability),
		assignments:   make(map[generic.UserID][]generic.Assignment),
	}
}

var _ generic.TeamStore = (*Memory)(nil)

// =============================================================================
// WRITES
// =============================================================================

func (m *Memory) PutMember(pm generic.ProjectMember) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[pm.ID]; !ok {
		m.memberOrder = append(m.memberOrder, pm.ID)
	}
	m.members[pm.ID] = pm
}

func (m *Memory) PutPartner(p generic.Partner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partners[p.ID] = p
}

func (m *Memory) PutStandardCost(sc generic.StandardCost) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.standardCosts[gridKeyOf(sc.Nation, sc.Role)] = sc
}

func (m *Memory) PutAvailability(ua generic.UserAvailability) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.availability[availabilityKey{UserID: ua.UserID, Year: ua.Year}] = ua
}

func (m *Memory) PutAssignment(a generic.Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.UserID] = append(m.assignments[a.UserID], a)
}

// Grid lookups match nation and role case-insensitively, like the SQLite store.
func gridKeyOf(nation, role string) gridKey {
	return gridKey{Nation: strings.ToLower(nation), Role: strings.ToLower(role)}
}

// =============================================================================
// READS (generic.TeamStore)
// =============================================================================

func (m *Memory) GetProjectMember(_ context.Context, id generic.MemberID) (*generic.ProjectMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pm, ok := m.members[id]
	if !ok {
		return nil, nil
	}
	return &pm, nil
}

func (m *Memory) GetPartner(_ context.Context, id generic.PartnerID) (*generic.Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.partners[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) FindStandardCost(_ context.Context, nation, role string) (*generic.StandardCost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.standardCosts[gridKeyOf(nation, role)]
	if !ok {
		return nil, nil
	}
	return &sc, nil
}

func (m *Memory) GetUserAvailability(_ context.Context, userID generic.UserID, year int) (*generic.UserAvailability, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ua, ok := m.availability[availabilityKey{UserID: userID, Year: year}]
	if !ok {
		return nil, nil
	}
	return &ua, nil
}

func (m *Memory) ListAssignments(_ context.Context, userID generic.UserID) ([]generic.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]generic.Assignment, len(m.assignments[userID]))
	copy(result, m.assignments[userID])
	return result, nil
}

func (m *Memory) ListProjectMembers(_ context.Context, projectID generic.ProjectID) ([]generic.ProjectMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []generic.ProjectMember
	for _, id := range m.memberOrder {
		if pm := m.members[id]; pm.ProjectID == projectID {
			result = append(result, pm)
		}
	}
	return result, nil
}

func (m *Memory) ListAvailabilityUsers(_ context.Context, year int) ([]generic.UserID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []generic.UserID
	for k := range m.availability {
		if k.Year == year {
			result = append(result, k.UserID)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}
