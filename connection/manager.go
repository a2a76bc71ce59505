// Package connection owns live database clients keyed by connection id. Each
// exported method is synchronous from the caller's perspective: the driver's
// own context-based API and internal connection-pool goroutines already give
// us an async-runtime-wrapped-as-a-blocking-call contract, so there is no
// separate executor abstraction here — just context.Context propagation.
package connection

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/mongoforge/apperr"
)

// ConnID identifies one managed client.
type ConnID string

// Profile is the minimal input the manager needs to establish a client. The
// command layer translates its own saved-connection records into a Profile
// before calling Connect; the manager does not know about saved connections,
// tabs, or any other session-store concept.
type Profile struct {
	ID       ConnID
	URI      string
	ReadOnly bool
}

// RuntimeMeta describes what Connect learned once the initial ping succeeded.
type RuntimeMeta struct {
	Hosts  []string
	Pinged time.Time
}

type managedClient struct {
	client  *mongo.Client
	profile Profile
	meta    RuntimeMeta
}

// Manager owns every live database client, keyed by connection id. It is
// constructed once by the host (CLI harness or UI shell) and passed down
// explicitly — unlike the teacher's package-level globalDB, a workbench
// needs many concurrent connections, not one.
type Manager struct {
	mu      sync.RWMutex
	clients map[ConnID]*managedClient
}

// NewManager returns an empty Manager ready to accept connections.
func NewManager() *Manager {
	return &Manager{clients: make(map[ConnID]*managedClient)}
}

// Connect establishes and pings a new client for id, replacing (and
// disconnecting) any client already registered under that id. It fails fast
// on a malformed URI and maps a failed ping to apperr.Driver.
func (m *Manager) Connect(ctx context.Context, profile Profile) (RuntimeMeta, error) {
	clientOpts := options.Client().ApplyURI(profile.URI)
	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return RuntimeMeta{}, apperr.Wrap(apperr.Driver, "connect", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return RuntimeMeta{}, apperr.Wrap(apperr.Driver, "ping admin database", err)
	}

	var hosts []string
	if clientOpts.Hosts != nil {
		hosts = append(hosts, clientOpts.Hosts...)
	}
	meta := RuntimeMeta{Hosts: hosts, Pinged: time.Now()}

	m.mu.Lock()
	if existing, ok := m.clients[profile.ID]; ok {
		_ = existing.client.Disconnect(context.Background())
	}
	m.clients[profile.ID] = &managedClient{client: client, profile: profile, meta: meta}
	m.mu.Unlock()

	return meta, nil
}

// TestConnection pings a candidate URI within timeout without registering
// it, for a "test connection" probe on an unsaved profile.
func TestConnection(ctx context.Context, uri string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return apperr.Wrap(apperr.Driver, "connect", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, nil); err != nil {
		if ctx.Err() != nil {
			return apperr.Wrap(apperr.Timeout, "ping exceeded bound", err)
		}
		return apperr.Wrap(apperr.Driver, "ping", err)
	}
	return nil
}

// Disconnect closes and forgets the client for id. A missing id is a no-op,
// matching the spec's tolerant disconnect semantics.
func (m *Manager) Disconnect(ctx context.Context, id ConnID) error {
	m.mu.Lock()
	mc, ok := m.clients[id]
	if ok {
		delete(m.clients, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	if err := mc.client.Disconnect(ctx); err != nil {
		return apperr.Wrap(apperr.Driver, "disconnect", err)
	}
	return nil
}

func (m *Manager) get(id ConnID) (*managedClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mc, ok := m.clients[id]
	if !ok {
		return nil, apperr.ErrNoConnection
	}
	return mc, nil
}

// Database returns a *mongo.Database handle for direct use by packages
// (schema, aggregation, transfer) that need driver-level access beyond the
// operations this package wraps.
func (m *Manager) Database(id ConnID, name string) (*mongo.Database, error) {
	mc, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return mc.client.Database(name), nil
}

// Collection is a convenience over Database(id, db).Collection(coll).
func (m *Manager) Collection(id ConnID, db, coll string) (*mongo.Collection, error) {
	d, err := m.Database(id, db)
	if err != nil {
		return nil, err
	}
	return d.Collection(coll), nil
}

// IsReadOnly reports the connected profile's read-only flag. Enforcement
// itself lives in the command layer, not here, matching the spec.
func (m *Manager) IsReadOnly(id ConnID) (bool, error) {
	mc, err := m.get(id)
	if err != nil {
		return false, err
	}
	return mc.profile.ReadOnly, nil
}

// RuntimeMeta returns the metadata captured at connect time.
func (m *Manager) RuntimeMeta(id ConnID) (RuntimeMeta, error) {
	mc, err := m.get(id)
	if err != nil {
		return RuntimeMeta{}, err
	}
	return mc.meta, nil
}

// ConnectedIDs returns every currently managed connection id, in no
// particular order.
func (m *Manager) ConnectedIDs() []ConnID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]ConnID, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	return ids
}
