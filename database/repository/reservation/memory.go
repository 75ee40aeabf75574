package reservationRepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tourbooking/models"
)

// MemoryStore keeps everything in process. Admission for a session runs under
// that session's lock, so it is safe for concurrent use within one process.
type MemoryStore struct {
	keyMu sync.Mutex
	keys  map[models.SessionKey]*sync.Mutex

	mu           sync.RWMutex
	reservations map[string]*models.Reservation
	customers    map[string]*models.Customer
	emails       map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys:         map[models.SessionKey]*sync.Mutex{},
		reservations: map[string]*models.Reservation{},
		customers:    map[string]*models.Customer{},
		emails:       map[string]string{},
	}
}

func (s *MemoryStore) sessionLock(key models.SessionKey) *sync.Mutex {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	l, ok := s.keys[key]
	if !ok {
		l = &sync.Mutex{}
		s.keys[key] = l
	}
	return l
}

// bookedLocked sums active seats on key, ignoring excludeID. Caller holds mu.
func (s *MemoryStore) bookedLocked(key models.SessionKey, excludeID string) int {
	total := 0
	for _, r := range s.reservations {
		if r.ID == excludeID || !r.Active() || r.Key() != key {
			continue
		}
		total += r.Participants
	}
	return total
}

func (s *MemoryStore) Insert(ctx context.Context, r *models.Reservation, capacity int) error {
	if err := ctx.Err(); err != nil {
		return &models.TransientStorageError{Op: "insert", Err: err}
	}
	l := s.sessionLock(r.Key())
	l.Lock()
	defer l.Unlock()

	if r.Active() {
		s.mu.RLock()
		booked := s.bookedLocked(r.Key(), "")
		s.mu.RUnlock()
		if booked+r.Participants > capacity {
			return capacityError(r.Key(), r.Participants, booked, capacity)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reservations[r.ID]; exists {
		return fmt.Errorf("id %s: %w", r.ID, models.ErrDuplicateReservation)
	}
	for _, existing := range s.reservations {
		if existing.Reference == r.Reference {
			return fmt.Errorf("reference %s: %w", r.Reference, models.ErrDuplicateReservation)
		}
	}
	r.Version = 1
	s.reservations[r.ID] = r.Clone()
	return nil
}

// Update holds only the target session's lock. Seats leaving another
// session can only lower that session's total.
func (s *MemoryStore) Update(ctx context.Context, r *models.Reservation, expectedVersion int64, capacity int) error {
	if err := ctx.Err(); err != nil {
		return &models.TransientStorageError{Op: "update", Err: err}
	}
	l := s.sessionLock(r.Key())
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	current, ok := s.reservations[r.ID]
	if !ok {
		s.mu.RUnlock()
		return reservationNotFound(r.ID)
	}
	if current.Version != expectedVersion {
		s.mu.RUnlock()
		return models.ErrVersionConflict
	}
	if needsAdmission(current, r) {
		booked := s.bookedLocked(r.Key(), r.ID)
		if booked+r.Participants > capacity {
			s.mu.RUnlock()
			return capacityError(r.Key(), r.Participants, booked, capacity)
		}
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	// another writer may have moved this reservation out of a different session
	if s.reservations[r.ID].Version != expectedVersion {
		return models.ErrVersionConflict
	}
	r.Version = expectedVersion + 1
	s.reservations[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, reservationNotFound(id)
	}
	return r.Clone(), nil
}

func (s *MemoryStore) GetByReference(_ context.Context, reference string) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reservations {
		if strings.EqualFold(r.Reference, reference) {
			return r.Clone(), nil
		}
	}
	return nil, reservationNotFound(reference)
}

func (s *MemoryStore) GetByPaymentID(_ context.Context, paymentID string) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reservations {
		if paymentID != "" && r.PaymentID == paymentID {
			return r.Clone(), nil
		}
	}
	return nil, reservationNotFound(paymentID)
}

func (s *MemoryStore) BookedBySlot(_ context.Context, date string) (map[models.Slot]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[models.Slot]int{}
	for _, r := range s.reservations {
		if r.Date == date && r.Active() {
			out[r.Slot] += r.Participants
		}
	}
	return out, nil
}

func (s *MemoryStore) ListPendingBefore(_ context.Context, cutoff time.Time) ([]*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Reservation
	for _, r := range s.reservations {
		if r.Status == models.StatusPending && r.PaymentStatus == models.PaymentUnpaid && r.CreatedAt.Before(cutoff) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) SaveCustomer(_ context.Context, c *models.Customer) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if id, ok := s.emails[email]; ok {
		existing := s.customers[id]
		existing.FullName = c.FullName
		if c.Phone != "" {
			existing.Phone = c.Phone
		}
		existing.UpdatedAt = c.UpdatedAt
		cp := *existing
		return &cp, nil
	}
	stored := *c
	stored.Email = email
	s.customers[stored.ID] = &stored
	s.emails[email] = stored.ID
	cp := stored
	return &cp, nil
}

func (s *MemoryStore) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, customerNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
