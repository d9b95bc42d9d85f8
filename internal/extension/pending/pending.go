// Package pending correlates requests forwarded to the background with the
// page that issued them.
package pending

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/fleshka4/dex-bridge/internal/extension/messaging"
)

// Info is a request waiting for a background response.
type Info struct {
	RequestID string
	Type      messaging.ResponseType
	Source    messaging.Source
}

// Option configures a Map.
type Option func(*Map)

// WithLogger sets the logger used to report evictions.
func WithLogger(l *zap.Logger) Option {
	return func(m *Map) { m.logger = l }
}

// WithEvictHook is called for entries dropped by TTL or capacity, never for
// entries removed by Take or Unregister.
func WithEvictHook(fn func(Info)) Option {
	return func(m *Map) { m.onEvict = fn }
}

// Map is a bounded table of pending requests keyed by request id. Entries
// expire after ttl; when capacity is reached the oldest entry is dropped.
// It is safe for concurrent use.
type Map struct {
	mu       sync.Mutex
	entries  *expirable.LRU[string, Info]
	explicit sync.Map

	logger  *zap.Logger
	onEvict func(Info)
}

// New creates a Map. A non-positive capacity means unbounded, a non-positive
// ttl means entries never expire.
func New(capacity int, ttl time.Duration, opts ...Option) *Map {
	m := &Map{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	if capacity < 0 {
		capacity = 0
	}
	m.entries = expirable.NewLRU[string, Info](capacity, m.evicted, ttl)
	return m
}

// Register records requestID. An existing entry with the same id is replaced.
func (m *Map) Register(requestID string, typ messaging.ResponseType, src messaging.Source) {
	m.entries.Add(requestID, Info{RequestID: requestID, Type: typ, Source: src})
}

// Resolve returns the entry for requestID if it expects a response of type
// typ. The entry stays registered.
func (m *Map) Resolve(requestID string, typ messaging.ResponseType) (Info, bool) {
	info, ok := m.entries.Peek(requestID)
	if !ok || info.Type != typ {
		return Info{}, false
	}
	return info, true
}

// Take is Resolve followed by Unregister, done atomically so a response is
// delivered at most once.
func (m *Map) Take(requestID string, typ messaging.ResponseType) (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.Resolve(requestID, typ)
	if !ok {
		return Info{}, false
	}
	m.remove(requestID)
	return info, true
}

// TakeAny removes and returns the entry for requestID whatever response type
// it expects. It is used for error responses, which may answer any request.
func (m *Map) TakeAny(requestID string) (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.entries.Peek(requestID)
	if !ok {
		return Info{}, false
	}
	m.remove(requestID)
	return info, true
}

// Unregister drops requestID regardless of its type.
func (m *Map) Unregister(requestID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.remove(requestID)
}

// Len returns the number of pending entries.
func (m *Map) Len() int {
	return m.entries.Len()
}

func (m *Map) remove(requestID string) bool {
	m.explicit.Store(requestID, struct{}{})
	if !m.entries.Remove(requestID) {
		m.explicit.Delete(requestID)
		return false
	}
	return true
}

// evicted runs under the LRU lock, so it must not call back into entries.
func (m *Map) evicted(requestID string, info Info) {
	if _, ok := m.explicit.LoadAndDelete(requestID); ok {
		return
	}
	m.logger.Debug("pending request evicted",
		zap.String("requestId", requestID),
		zap.String("type", string(info.Type)),
	)
	if m.onEvict != nil {
		m.onEvict(info)
	}
}
