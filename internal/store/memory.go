package store

import (
	"sync"
	"time"

	"github.com/AngelCh415/voyager-portal/internal/models"
)

// MemoryStore holds the current payload snapshot, the local approval queue
// and storefront carts. Payload snapshots are replaced whole, never edited.
type MemoryStore struct {
	mu       sync.RWMutex
	payload  models.Payload
	loadedAt time.Time
	source   string
	pending  []models.PendingCampaign
	carts    map[int]models.Cart
	notices  map[int][]models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payload: models.Payload{BreakdownBySegment: map[string][]models.CampaignRow{}},
		carts:   make(map[int]models.Cart),
		notices: make(map[int][]models.Notification),
	}
}

func (s *MemoryStore) SetPayload(p models.Payload, source string, at time.Time) {
	if p.BreakdownBySegment == nil {
		p.BreakdownBySegment = map[string][]models.CampaignRow{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = p
	s.source = source
	s.loadedAt = at
}

// Payload returns the current snapshot. Callers must treat it as read-only.
func (s *MemoryStore) Payload() models.Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payload
}

func (s *MemoryStore) PayloadInfo() (source string, at time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source, s.loadedAt
}

func (s *MemoryStore) Pending() []models.PendingCampaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PendingCampaign, len(s.pending))
	copy(out, s.pending)
	return out
}

func (s *MemoryStore) AddPending(c models.PendingCampaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, c)
}

// RemovePending drops the campaign and reports whether it was queued.
func (s *MemoryStore) RemovePending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.pending {
		if c.CampaignID == id {
			s.pending = append(s.pending[:i:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (s *MemoryStore) FindPendingByUser(userID int) (models.PendingCampaign, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.pending {
		if c.UserID == userID {
			return c, true
		}
	}
	return models.PendingCampaign{}, false
}

// Cart returns the user's cart, or ok=false if none was saved yet.
func (s *MemoryStore) Cart(userID int) (models.Cart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[userID]
	return c, ok
}

// UpdateCart applies fn to the user's cart and saves the result under one
// lock. A user with no cart yet starts from an empty one.
func (s *MemoryStore) UpdateCart(userID int, fn func(models.Cart) models.Cart) models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		c = models.Cart{Items: []models.CartItem{}, UserID: userID}
	}
	c = fn(c)
	c.UserID = userID
	s.carts[userID] = c
	return c
}

// AddNotification prepends n so the newest notice comes first.
func (s *MemoryStore) AddNotification(userID int, n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices[userID] = append([]models.Notification{n}, s.notices[userID]...)
}

func (s *MemoryStore) Notifications(userID int) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification{}, s.notices[userID]...)
}

// MarkRead flags one notification as read. It reports whether it was found.
func (s *MemoryStore) MarkRead(userID int, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notices[userID] {
		if s.notices[userID][i].ID == id {
			s.notices[userID][i].IsRead = true
			return true
		}
	}
	return false
}
