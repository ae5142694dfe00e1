package shoppinglist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/pricelist/internal/catalog"
	"github.com/noah-isme/pricelist/internal/lock"
	"github.com/noah-isme/pricelist/internal/obs"
	"github.com/noah-isme/pricelist/internal/pricing"
)

// Locker serialises mutations of one list.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Store   Store
	Holder  *catalog.Holder
	Locker  Locker
	LockTTL time.Duration
	Now     func() time.Time
}

// Service encapsulates shopping list operations. Every mutation runs under
// the list's lock and prices against the holder's current snapshot.
type Service struct {
	store   Store
	holder  *catalog.Holder
	locker  Locker
	lockTTL time.Duration
	now     func() time.Time
}

// NewService constructs a Service. A nil Locker falls back to an in-process
// lock and a nil Store to an in-memory store.
func NewService(cfg ServiceConfig) *Service {
	svc := &Service{
		store:   cfg.Store,
		holder:  cfg.Holder,
		locker:  cfg.Locker,
		lockTTL: cfg.LockTTL,
		now:     cfg.Now,
	}
	if svc.store == nil {
		svc.store = NewMemoryStore(DefaultTTL)
	}
	if svc.locker == nil {
		svc.locker = &lock.Local{}
	}
	if svc.lockTTL <= 0 {
		svc.lockTTL = 5 * time.Second
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Create stores a new empty list.
func (s *Service) Create(ctx context.Context) (List, error) {
	now := s.now().UTC()
	list := List{ID: uuid.NewString(), Lines: []Line{}, CreatedAt: now, UpdatedAt: now}
	err := s.store.Save(ctx, list)
	obs.RecordListOp("create", err)
	if err != nil {
		return List{}, err
	}
	return list, nil
}

// Get loads a list.
func (s *Service) Get(ctx context.Context, id string) (List, error) {
	if err := validateID(id); err != nil {
		return List{}, err
	}
	return s.store.Get(ctx, id)
}

// AddLine prices and appends a selection to list id.
func (s *Service) AddLine(ctx context.Context, id, item, size string, qty int) (List, error) {
	return s.mutate(ctx, "add_line", id, func(list *List, price Pricer) error {
		if _, ok := list.AddLine(item, size, qty, price); !ok {
			return fmt.Errorf("item is required: %w", ErrInvalidInput)
		}
		return nil
	})
}

// SetLineQuantity changes the quantity of a line and re-prices it.
func (s *Service) SetLineQuantity(ctx context.Context, id string, index, qty int) (List, error) {
	return s.mutate(ctx, "set_quantity", id, func(list *List, price Pricer) error {
		_, err := list.SetLineQuantity(index, qty, price)
		return err
	})
}

// RemoveLine deletes a line from list id.
func (s *Service) RemoveLine(ctx context.Context, id string, index int) (List, error) {
	return s.mutate(ctx, "remove_line", id, func(list *List, _ Pricer) error {
		return list.RemoveLine(index)
	})
}

func (s *Service) mutate(ctx context.Context, op, id string, fn func(*List, Pricer) error) (List, error) {
	var out List
	err := validateID(id)
	if err == nil {
		err = s.locker.WithLock(ctx, lockKey(id), s.lockTTL, func(ctx context.Context) error {
			price, err := s.pricer()
			if err != nil {
				return err
			}
			list, err := s.store.Get(ctx, id)
			if err != nil {
				return err
			}
			if err := fn(&list, price); err != nil {
				return err
			}
			list.UpdatedAt = s.now().UTC()
			if err := s.store.Save(ctx, list); err != nil {
				return err
			}
			out = list
			return nil
		})
	}
	obs.RecordListOp(op, err)
	return out, err
}

func (s *Service) pricer() (Pricer, error) {
	if s.holder == nil {
		return nil, errors.New("shopping list catalog not configured")
	}
	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}
	return pricing.Table(snap.Records), nil
}

func lockKey(id string) string {
	return "pricelist:lock:list:" + id
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return nil
}
