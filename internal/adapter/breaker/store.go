package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/sony/gobreaker"
)

type Settings struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// MaxFailures consecutive transport failures open the circuit.
	MaxFailures uint32
}

// Store guards a DocumentStore with a circuit breaker. Domain outcomes such as
// not-found or version conflicts pass through without counting as failures.
type Store struct {
	next    ports.DocumentStore
	cb      *gobreaker.CircuitBreaker
	logger  ports.LoggerPort
	metrics ports.MetricsPort
}

func NewStore(next ports.DocumentStore, settings Settings, logger ports.LoggerPort, metrics ports.MetricsPort) *Store {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	s := &Store{next: next, logger: logger, metrics: metrics}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Store circuit breaker changed state", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.SetBreakerState(name, to.String())
		},
	})
	return s
}

var _ ports.DocumentStore = (*Store)(nil)

func (s *Store) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	var doc *ports.Document
	err := s.execute(func() error {
		var err error
		doc, err = s.next.Get(ctx, collection, id)
		return err
	})
	return doc, err
}

func (s *Store) List(ctx context.Context, collection string, q ports.Query) (*ports.DocumentList, error) {
	var list *ports.DocumentList
	err := s.execute(func() error {
		var err error
		list, err = s.next.List(ctx, collection, q)
		return err
	})
	return list, err
}

func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	var doc *ports.Document
	err := s.execute(func() error {
		var err error
		doc, err = s.next.Create(ctx, collection, id, fields)
		return err
	})
	return doc, err
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]interface{}, expectedVersion int64) (*ports.Document, error) {
	var doc *ports.Document
	err := s.execute(func() error {
		var err error
		doc, err = s.next.Update(ctx, collection, id, fields, expectedVersion)
		return err
	})
	return doc, err
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.execute(func() error {
		return s.next.Delete(ctx, collection, id)
	})
}

func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

func (s *Store) execute(call func() error) error {
	var callErr error
	_, err := s.cb.Execute(func() (interface{}, error) {
		callErr = call()
		if callErr != nil && countsAsFailure(callErr) {
			return nil, callErr
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return callErr
}

func countsAsFailure(err error) bool {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, context.Canceled):
		return false
	}
	var validationErr *domain.ValidationError
	return !errors.As(err, &validationErr)
}
