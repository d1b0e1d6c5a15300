// Package memory provides an in-memory DrawStore used by tests and
// single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/R3E-Network/luckydraw/internal/domain/draw"
	"github.com/R3E-Network/luckydraw/internal/storage"
)

// Store implements storage.DrawStore backed by maps.
type Store struct {
	mu         sync.RWMutex
	nextDrawID uint64
	draws      map[uint64]draw.Draw
	results    map[string]draw.UserResult
	pending    map[uint64]draw.PendingRequest
	whitelist  map[string]bool
}

var _ storage.DrawStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		draws:     make(map[uint64]draw.Draw),
		results:   make(map[string]draw.UserResult),
		pending:   make(map[uint64]draw.PendingRequest),
		whitelist: make(map[string]bool),
	}
}

func resultKey(drawID uint64, participant string) string {
	return fmt.Sprintf("%d/%s", drawID, strings.ToLower(participant))
}

func (s *Store) CreateDraw(ctx context.Context, d draw.Draw) (draw.Draw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.nextDrawID
	s.nextDrawID++
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	s.draws[d.ID] = d.Clone()
	return d, nil
}

func (s *Store) GetDraw(ctx context.Context, id uint64) (draw.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.draws[id]
	if !ok {
		return draw.Draw{}, fmt.Errorf("draw %d: %w", id, storage.ErrNotFound)
	}
	return d.Clone(), nil
}

func (s *Store) UpdateDraw(ctx context.Context, d draw.Draw) (draw.Draw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.draws[d.ID]; !ok {
		return draw.Draw{}, fmt.Errorf("draw %d: %w", d.ID, storage.ErrNotFound)
	}
	d.UpdatedAt = time.Now().UTC()
	s.draws[d.ID] = d.Clone()
	return d, nil
}

func (s *Store) ListDraws(ctx context.Context) ([]draw.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]draw.Draw, 0, len(s.draws))
	for _, d := range s.draws {
		result = append(result, d.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) NextDrawID(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextDrawID, nil
}

func (s *Store) GetUserResult(ctx context.Context, drawID uint64, participant string) (draw.UserResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[resultKey(drawID, participant)]
	if !ok {
		return draw.UserResult{}, fmt.Errorf("result %d/%s: %w", drawID, participant, storage.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *Store) PutUserResult(ctx context.Context, r draw.UserResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[resultKey(r.DrawID, r.Participant)] = r.Clone()
	return nil
}

func (s *Store) ListUserResults(ctx context.Context, drawID uint64) ([]draw.UserResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []draw.UserResult
	for _, r := range s.results {
		if r.DrawID == drawID {
			result = append(result, r.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EnteredAt.Before(result[j].EnteredAt) })
	return result, nil
}

func (s *Store) PutPendingRequest(ctx context.Context, p draw.PendingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[p.RequestID] = p
	return nil
}

func (s *Store) GetPendingRequest(ctx context.Context, requestID uint64) (draw.PendingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pending[requestID]
	if !ok {
		return draw.PendingRequest{}, fmt.Errorf("request %d: %w", requestID, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) DeletePendingRequest(ctx context.Context, requestID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[requestID]; !ok {
		return fmt.Errorf("request %d: %w", requestID, storage.ErrNotFound)
	}
	delete(s.pending, requestID)
	return nil
}

func (s *Store) SetWhitelisted(ctx context.Context, address string, allowed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.whitelist[strings.ToLower(address)] = allowed
	return nil
}

func (s *Store) SetWhitelistedBatch(ctx context.Context, addresses []string, allowed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, address := range addresses {
		s.whitelist[strings.ToLower(address)] = allowed
	}
	return nil
}

func (s *Store) IsWhitelisted(ctx context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.whitelist[strings.ToLower(address)], nil
}
