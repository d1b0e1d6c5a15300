package vrf

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/R3E-Network/luckydraw/pkg/logger"
)

// randomBits is the width of locally generated random values.
const randomBits = 256

// Local is a coordinator that fulfills requests in-process from
// crypto/rand. It stands in for the external oracle in development and
// single-node deployments; deliveries are asynchronous, mirroring the
// production callback path.
type Local struct {
	log       *logger.Logger
	nextID    atomic.Uint64
	requests  chan uint64
	cbMu      sync.RWMutex
	callback  Callback
	startOnce sync.Once
}

var _ Coordinator = (*Local)(nil)

// NewLocal creates a local coordinator with the given queue depth.
func NewLocal(log *logger.Logger, queueDepth int) *Local {
	if log == nil {
		log = logger.NewDefault("vrf-local")
	}
	if queueDepth <= 0 {
		queueDepth = 64
	}
	l := &Local{log: log, requests: make(chan uint64, queueDepth)}
	l.nextID.Store(1)
	return l
}

// Subscribe registers the delivery callback. Must be called before the
// first request is fulfilled.
func (l *Local) Subscribe(cb Callback) {
	l.cbMu.Lock()
	defer l.cbMu.Unlock()
	l.callback = cb
}

// RequestRandomness queues a request and returns its id.
func (l *Local) RequestRandomness(ctx context.Context, cfg Config) (uint64, error) {
	id := l.nextID.Add(1) - 1
	select {
	case l.requests <- id:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Run fulfills queued requests until the context is cancelled.
func (l *Local) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-l.requests:
			l.fulfill(ctx, id)
		}
	}
}

func (l *Local) fulfill(ctx context.Context, requestID uint64) {
	value, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), randomBits))
	if err != nil {
		l.log.WithError(err).WithField("request_id", requestID).Error("failed to generate randomness")
		return
	}

	l.cbMu.RLock()
	cb := l.callback
	l.cbMu.RUnlock()
	if cb == nil {
		l.log.WithField("request_id", requestID).Warn("no callback registered, dropping delivery")
		return
	}

	if err := cb(ctx, requestID, value); err != nil {
		l.log.WithError(err).WithField("request_id", requestID).Warn("randomness delivery rejected")
		return
	}
	l.log.WithField("request_id", requestID).Debug("randomness delivered")
}

// Manual is a coordinator for deterministic tests: it records requests and
// fulfills them only when Fulfill is called with an explicit value.
type Manual struct {
	mu       sync.Mutex
	nextID   uint64
	pending  map[uint64]bool
	callback Callback
}

var _ Coordinator = (*Manual)(nil)

// NewManual creates a manual coordinator. Request ids start at 1.
func NewManual() *Manual {
	return &Manual{nextID: 1, pending: make(map[uint64]bool)}
}

func (m *Manual) Subscribe(cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = cb
}

func (m *Manual) RequestRandomness(ctx context.Context, cfg Config) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.pending[id] = true
	return id, nil
}

// Fulfill delivers the value for a recorded request.
func (m *Manual) Fulfill(ctx context.Context, requestID uint64, value *big.Int) error {
	m.mu.Lock()
	cb := m.callback
	known := m.pending[requestID]
	delete(m.pending, requestID)
	m.mu.Unlock()

	if cb == nil {
		return fmt.Errorf("no callback registered")
	}
	if !known {
		return fmt.Errorf("request %d was never issued", requestID)
	}
	return cb(ctx, requestID, value)
}

// PendingCount reports requests issued but not yet fulfilled.
func (m *Manual) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
