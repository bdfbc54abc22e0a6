package hub

import (
	"log"
	"sync"
	"time"
)

const (
	// DefaultTailSize bounds the in-memory chat transcript per project.
	DefaultTailSize = 200

	// DefaultIdleGrace is how long a hub may sit with zero sinks before
	// it is disposed.
	DefaultIdleGrace = 5 * time.Minute

	// sweepInterval is how often the janitor scans for idle hubs.
	sweepInterval = 30 * time.Second
)

// Config holds configuration for the hub manager.
type Config struct {
	TailSize  int
	IdleGrace time.Duration

	// ChatLog, when set, receives every sequenced chat message.
	ChatLog ChatAppender

	// EventLogFactory, when set, is called once per hub to open that
	// project's event recorder.
	EventLogFactory func(projectID string) (EventRecorder, error)
}

// Manager manages the hubs of all live project sessions. Hubs are created
// lazily on first attach and disposed once they have been idle for the
// configured grace period, so abandoned projects do not pin memory.
type Manager struct {
	mu   sync.RWMutex
	hubs map[string]*Hub

	tailSize   int
	idleGrace  time.Duration
	chatLog    ChatAppender
	logFactory func(projectID string) (EventRecorder, error)

	stopOnce sync.Once
	stop     chan struct{}
}

// NewManager creates a new Manager and starts its idle-eviction janitor.
func NewManager(config Config) *Manager {
	if config.TailSize == 0 {
		config.TailSize = DefaultTailSize
	}
	if config.IdleGrace == 0 {
		config.IdleGrace = DefaultIdleGrace
	}

	m := &Manager{
		hubs:       make(map[string]*Hub),
		tailSize:   config.TailSize,
		idleGrace:  config.IdleGrace,
		chatLog:    config.ChatLog,
		logFactory: config.EventLogFactory,
		stop:       make(chan struct{}),
	}

	go m.janitor()

	return m
}

// GetOrCreate returns an existing hub or creates a new one for the project.
func (m *Manager) GetOrCreate(projectID string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.hubs[projectID]; ok {
		return h
	}

	var recorder EventRecorder
	if m.logFactory != nil {
		var err error
		recorder, err = m.logFactory(projectID)
		if err != nil {
			log.Printf("failed to open event log for project %s: %v", projectID, err)
			recorder = nil
		}
	}

	h := NewHub(projectID, m.tailSize, m.chatLog, recorder)
	m.hubs[projectID] = h
	return h
}

// Get returns the hub for the project, or nil if no session is live.
func (m *Manager) Get(projectID string) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[projectID]
}

// Remove closes and removes the hub for the project.
func (m *Manager) Remove(projectID string) {
	m.mu.Lock()
	h, ok := m.hubs[projectID]
	if ok {
		delete(m.hubs, projectID)
	}
	m.mu.Unlock()

	if ok {
		h.Close()
	}
}

// HubCount returns the number of live hubs.
func (m *Manager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// Close stops the janitor and closes all hubs.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})

	m.mu.Lock()
	hubs := make([]*Hub, 0, len(m.hubs))
	for _, h := range m.hubs {
		hubs = append(hubs, h)
	}
	m.hubs = make(map[string]*Hub)
	m.mu.Unlock()

	for _, h := range hubs {
		h.Close()
	}
}

// janitor periodically disposes hubs that have been idle past the grace
// period.
func (m *Manager) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// sweep evicts every hub idle for longer than the grace period.
func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	var evicted []*Hub
	for id, h := range m.hubs {
		if h.IdleFor(now) > m.idleGrace {
			delete(m.hubs, id)
			evicted = append(evicted, h)
		}
	}
	m.mu.Unlock()

	for _, h := range evicted {
		log.Printf("disposing idle session hub for project %s", h.ProjectID())
		h.Close()
	}
}
