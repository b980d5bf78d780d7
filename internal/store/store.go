package store

import (
	"slices"
	"sync"

	"github.com/DoyleJ11/board-client/pkg/types"
)

// View is a consistent read of everything the store holds.
type View struct {
	Version   int
	Snapshot  *types.Snapshot
	Identity  *types.Identity
	Connected bool
}

// Listener is called synchronously after every Replace, outside the lock.
type Listener func(View)

// Store holds the latest snapshot for one game session. Replace is the only
// snapshot mutation and is expected to have a single writer (the connection's
// read loop); readers may be concurrent.
type Store struct {
	mu        sync.RWMutex
	snap      *types.Snapshot
	version   int
	identity  *types.Identity
	connected bool

	listeners map[int]Listener
	nextID    int
}

func New() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// Replace discards the previous snapshot, bumps the version and notifies
// listeners in subscription order.
func (s *Store) Replace(snap *types.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.version++
	v := s.viewLocked()
	ls := s.orderedLocked()
	s.mu.Unlock()

	for _, l := range ls {
		l(v)
	}
}

// Read returns the current snapshot, or false when none has arrived yet.
func (s *Store) Read() (*types.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.snap != nil
}

func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) SetIdentity(id types.Identity) {
	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()
}

func (s *Store) Identity() (types.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return types.Identity{}, false
	}
	return *s.identity, true
}

func (s *Store) SetConnected(up bool) {
	s.mu.Lock()
	s.connected = up
	s.mu.Unlock()
}

func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Subscribe registers a listener and returns its handle, or -1 for nil.
func (s *Store) Subscribe(l Listener) int {
	if l == nil {
		return -1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.nextID
	s.nextID++
	s.listeners[h] = l
	return h
}

func (s *Store) Unsubscribe(handle int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, handle)
}

func (s *Store) viewLocked() View {
	v := View{Version: s.version, Snapshot: s.snap, Connected: s.connected}
	if s.identity != nil {
		id := *s.identity
		v.Identity = &id
	}
	return v
}

// handles are allocated increasing, so sorting them gives subscription order
func (s *Store) orderedLocked() []Listener {
	handles := make([]int, 0, len(s.listeners))
	for h := range s.listeners {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	out := make([]Listener, 0, len(handles))
	for _, h := range handles {
		out = append(out, s.listeners[h])
	}
	return out
}
