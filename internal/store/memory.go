package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps rows in maps. It backs tests and dry runs.
type MemoryStore struct {
	mu           sync.RWMutex
	profiles     map[string]Profile
	events       map[string]Event
	whitelist    map[string]map[string]WhitelistEntry
	certificates map[string]Certificate
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:     make(map[string]Profile),
		events:       make(map[string]Event),
		whitelist:    make(map[string]map[string]WhitelistEntry),
		certificates: make(map[string]Certificate),
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) InsertProfile(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := *p
	row.CreatedAt = createdAt(row.CreatedAt)
	if old, ok := s.profiles[row.Email]; ok {
		row.Role = old.Role
		row.CreatedAt = old.CreatedAt
	}
	s.profiles[row.Email] = row
	return nil
}

func (s *MemoryStore) GetProfileByEmail(_ context.Context, email string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[email]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "profile %s", email)
	}
	return &p, nil
}

func (s *MemoryStore) LinkProfileWallet(_ context.Context, accountAddress string, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, p := range s.profiles {
		if p.PopchainAccountAddress == accountAddress {
			p.WalletAddress = wallet
			s.profiles[email] = p
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "profile %s", accountAddress)
}

func (s *MemoryStore) InsertEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ObjectID]; ok {
		return nil
	}
	row := *e
	row.CreatedAt = createdAt(row.CreatedAt)
	s.events[row.ObjectID] = row
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, objectID string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[objectID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "event %s", objectID)
	}
	return &e, nil
}

func (s *MemoryStore) CloseEvent(_ context.Context, objectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[objectID]
	if !ok {
		return errors.Wrapf(ErrNotFound, "event %s", objectID)
	}
	e.Closed = true
	s.events[objectID] = e
	return nil
}

func (s *MemoryStore) InsertWhitelist(_ context.Context, w *WhitelistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.whitelist[w.EventID]
	if !ok {
		entries = make(map[string]WhitelistEntry)
		s.whitelist[w.EventID] = entries
	}
	row := *w
	row.CreatedAt = createdAt(row.CreatedAt)
	if old, ok := entries[row.EmailHash]; ok {
		row.CreatedAt = old.CreatedAt
	}
	entries[row.EmailHash] = row
	return nil
}

func (s *MemoryStore) DeleteWhitelist(_ context.Context, eventID string, emailHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.whitelist[eventID], emailHash)
	return nil
}

func (s *MemoryStore) ListWhitelist(_ context.Context, eventID string) ([]WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]WhitelistEntry, 0, len(s.whitelist[eventID]))
	for _, w := range s.whitelist[eventID] {
		entries = append(entries, w)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Email < entries[j].Email
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *MemoryStore) InsertCertificate(_ context.Context, c *Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certificates[c.ObjectID]; ok {
		return nil
	}
	row := *c
	row.CreatedAt = createdAt(row.CreatedAt)
	s.certificates[row.ObjectID] = row
	return nil
}

func (s *MemoryStore) GetCertificate(_ context.Context, objectID string) (*Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certificates[objectID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "certificate %s", objectID)
	}
	return &c, nil
}
