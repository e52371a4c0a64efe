package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crane-booking-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked up record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStale is returned when a guarded update matched no row because the
	// record changed under the caller.
	ErrStale = errors.New("record changed concurrently")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate key")
)

// Store defines the interface for all database operations.
type Store interface {
	// InTx runs fn inside one transaction. The Store passed to fn is bound to
	// that transaction and must be used for every call inside fn.
	InTx(ctx context.Context, fn func(tx Store) error) error
	// LockResources loads and row-locks the given resources in id order until
	// the enclosing transaction ends.
	LockResources(ctx context.Context, ids ...int64) (map[int64]model.Resource, error)

	ResourceStore
	LoadProfileStore
	ReservationStore
	MaintenanceStore
	WaitingListStore
	SubscriptionStore
}

// ResourceStore persists cranes.
type ResourceStore interface {
	GetResource(ctx context.Context, id int64) (*model.Resource, error)
	ListResources(ctx context.Context, activeOnly bool) ([]model.Resource, error)
	CreateResource(ctx context.Context, res *model.Resource) error
	SaveResource(ctx context.Context, res *model.Resource) error
}

// LoadProfileStore persists saved vessels.
type LoadProfileStore interface {
	GetLoadProfile(ctx context.Context, id int64) (*model.LoadProfile, error)
	ListLoadProfiles(ctx context.Context, ownerID string) ([]model.LoadProfile, error)
	CreateLoadProfile(ctx context.Context, p *model.LoadProfile) error
}

// ReservationStore persists reservations.
type ReservationStore interface {
	GetReservation(ctx context.Context, id int64) (*model.Reservation, error)
	FindReservations(ctx context.Context, q ReservationQuery) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, r *model.Reservation) error
	TransitionReservation(ctx context.Context, id int64, from []model.ReservationStatus, change StatusChange) error
	MoveReservation(ctx context.Context, id int64, from []model.ReservationStatus, resourceID int64, start, end time.Time) error
}

// MaintenanceStore persists maintenance blocks.
type MaintenanceStore interface {
	FindMaintenanceBlocks(ctx context.Context, q WindowQuery) ([]model.MaintenanceBlock, error)
	CreateMaintenanceBlock(ctx context.Context, b *model.MaintenanceBlock) error
	DeleteMaintenanceBlock(ctx context.Context, id int64) error
}

// WaitingListStore persists waiting list entries.
type WaitingListStore interface {
	GetWaitingEntry(ctx context.Context, id int64) (*model.WaitingListEntry, error)
	FindWaitingEntries(ctx context.Context, q WaitingQuery) ([]model.WaitingListEntry, error)
	CreateWaitingEntry(ctx context.Context, e *model.WaitingListEntry) error
	ConsumeWaitingEntry(ctx context.Context, id, reservationID int64) error
	SetNotifyStatus(ctx context.Context, ids []int64, from, to model.NotifyStatus) error
}

// SubscriptionStore persists web push subscriptions.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsFor(ctx context.Context, requesterID string) ([]model.PushSubscription, error)
}

// WindowQuery selects records on a resource whose interval intersects [From, To).
// Zero values leave the corresponding bound open.
type WindowQuery struct {
	ResourceID int64
	From       time.Time
	To         time.Time
}

// ReservationQuery filters reservations.
type ReservationQuery struct {
	WindowQuery
	RequesterID string
	Statuses    []model.ReservationStatus
	ExcludeID   int64
}

// WaitingQuery filters waiting list entries.
type WaitingQuery struct {
	ResourceID    int64
	RequesterID   string
	RequestedDate string
	Consumed      *bool
	NotifyStatus  model.NotifyStatus
}

// StatusChange is the payload of a lifecycle transition.
type StatusChange struct {
	To           model.ReservationStatus
	AdminNote    *string
	CancelReason *string
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// InTx runs fn in a transaction bound store.
func (s *gormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// LockResources row-locks resources with SELECT ... FOR UPDATE. SQLite has no
// row locks; there the single connection pool serializes transactions instead.
func (s *gormStore) LockResources(ctx context.Context, ids ...int64) (map[int64]model.Resource, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	locked := make(map[int64]model.Resource, len(sorted))
	for _, id := range sorted {
		if _, seen := locked[id]; seen {
			continue
		}
		q := s.db.WithContext(ctx)
		if s.db.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var res model.Resource
		if err := q.First(&res, id).Error; err != nil {
			return nil, notFound(err, "lock resource %d", id)
		}
		locked[id] = res
	}
	return locked, nil
}

// notFound maps gorm.ErrRecordNotFound to ErrNotFound and wraps anything else.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// isDuplicate reports unique violations from postgres and sqlite.
func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const uniqueViolation = "23505"

func statusStrings(statuses []model.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// window applies the intersection with [From, To) on start_at/end_at columns.
func window(q *gorm.DB, w WindowQuery) *gorm.DB {
	if w.ResourceID != 0 {
		q = q.Where("resource_id = ?", w.ResourceID)
	}
	if !w.To.IsZero() {
		q = q.Where("start_at < ?", w.To.UTC())
	}
	if !w.From.IsZero() {
		q = q.Where("end_at > ?", w.From.UTC())
	}
	return q
}
