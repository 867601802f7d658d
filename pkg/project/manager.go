package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/arche"
	"github.com/aretw0/arche/internal/logging"
	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/record"
)

// ErrProjectExists is returned by Create when the id is already taken.
var ErrProjectExists = errors.New("project already exists")

// DefaultLockTTL bounds how long a distributed lock is held if a replica dies.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates project access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.ProjectStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	liveMu sync.RWMutex
	live   map[string]*arche.Project

	locker      ports.DistributedLocker // Optional distributed locker
	lockTTL     time.Duration
	projectOpts []arche.Option
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithProjectOptions sets the options used to build every live project,
// e.g. arche.WithHooks for metrics.
func WithProjectOptions(opts ...arche.Option) Option {
	return func(m *Manager) {
		m.projectOpts = append(m.projectOpts, opts...)
	}
}

// NewManager creates a new Manager over the given store.
func NewManager(store ports.ProjectStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*arche.Project),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(projectID) after unlocking.
func (m *Manager) acquire(projectID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[projectID]
	if !exists {
		entry = &lockEntry{}
		m.locks[projectID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[projectID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, projectID)
	}
}

func (m *Manager) cached(projectID string) (*arche.Project, bool) {
	m.liveMu.RLock()
	defer m.liveMu.RUnlock()
	p, ok := m.live[projectID]
	return p, ok
}

func (m *Manager) cache(projectID string, p *arche.Project) {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	m.live[projectID] = p
}

func (m *Manager) evict(projectID string) (*arche.Project, bool) {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	p, ok := m.live[projectID]
	delete(m.live, projectID)
	return p, ok
}

// Open returns the live project, loading and building it on first use.
func (m *Manager) Open(ctx context.Context, projectID string) (*arche.Project, error) {
	if p, ok := m.cached(projectID); ok {
		return p, nil
	}

	var p *arche.Project
	err := m.WithLock(ctx, projectID, func(ctx context.Context) error {
		var err error
		p, err = m.openLocked(ctx, projectID)
		return err
	})
	return p, err
}

// openLocked returns the cached project or loads it. The caller holds the project lock.
func (m *Manager) openLocked(ctx context.Context, projectID string) (*arche.Project, error) {
	if cached, ok := m.cached(projectID); ok {
		return cached, nil
	}
	loaded, err := arche.Load(ctx, m.store, projectID, m.projectOpts...)
	if err != nil {
		return nil, err
	}
	m.cache(projectID, loaded)
	m.logger.Info("Project opened", "project_id", projectID, "nodes", loaded.Tree().Len())
	return loaded, nil
}

// Create builds rec, persists it and makes it live.
// Returns ErrProjectExists if the store already holds projectID.
func (m *Manager) Create(ctx context.Context, projectID string, rec record.Record) (*arche.Project, error) {
	var p *arche.Project
	err := m.WithLock(ctx, projectID, func(ctx context.Context) error {
		if _, ok := m.cached(projectID); ok {
			return fmt.Errorf("%w: %s", ErrProjectExists, projectID)
		}
		_, err := m.store.Load(ctx, projectID)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrProjectExists, projectID)
		}
		if !errors.Is(err, ports.ErrProjectNotFound) {
			return fmt.Errorf("failed to check project existence: %w", err)
		}

		built, err := arche.FromRecord(rec, m.projectOpts...)
		if err != nil {
			return err
		}
		encoded, err := built.Record()
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, projectID, encoded); err != nil {
			return fmt.Errorf("failed to initialize project: %w", err)
		}
		m.cache(projectID, built)
		p = built
		m.logger.Info("Project created", "project_id", projectID, "nodes", built.Tree().Len())
		return nil
	})
	return p, err
}

// Save persists the live project, opening it first when it is not live yet.
// Returns ports.ErrProjectNotFound if the store does not hold projectID.
func (m *Manager) Save(ctx context.Context, projectID string) error {
	return m.WithLock(ctx, projectID, func(ctx context.Context) error {
		p, err := m.openLocked(ctx, projectID)
		if err != nil {
			return err
		}
		rec, err := p.Record()
		if err != nil {
			return err
		}
		return m.store.Save(ctx, projectID, rec)
	})
}

// Close ends every subscription of the live project and forgets it. The
// stored record is untouched. Closing a project that is not open is a no-op.
func (m *Manager) Close(projectID string) {
	if p, ok := m.evict(projectID); ok {
		p.Close()
		m.logger.Info("Project closed", "project_id", projectID)
	}
}

// CloseAll closes every live project.
func (m *Manager) CloseAll() {
	for _, id := range m.Opened() {
		m.Close(id)
	}
}

// Delete closes the project and removes it from the store.
func (m *Manager) Delete(ctx context.Context, projectID string) error {
	return m.WithLock(ctx, projectID, func(ctx context.Context) error {
		m.Close(projectID)
		return m.store.Delete(ctx, projectID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Opened returns the ids of the live projects in lexical order.
func (m *Manager) Opened() []string {
	m.liveMu.RLock()
	defer m.liveMu.RUnlock()
	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store returns the underlying project store.
func (m *Manager) Store() ports.ProjectStore {
	return m.store
}

// WithLock executes a function while holding the lock for the project.
func (m *Manager) WithLock(ctx context.Context, projectID string, fn func(context.Context) error) error {
	entry := m.acquire(projectID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(projectID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, projectID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"project_id", projectID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
