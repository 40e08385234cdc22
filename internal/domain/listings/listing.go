package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"rstays/internal/domain/inventory"
	"rstays/internal/domain/shared/events"
)

var (
	ErrListingNotFound = errors.New("listings: not found")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrHostRequired    = errors.New("listings: host is required")
	ErrNoInventory     = errors.New("listings: listing owns no inventory")
	ErrInactive        = errors.New("listings: listing is not active")
)

type State string

const (
	StateDraft     State = "DRAFT"
	StateActive    State = "ACTIVE"
	StateSuspended State = "SUSPENDED"
)

// Listing is the marketplace entry. The inventory it sells lives in the
// inventory package: a single Unit (Kind "unit") or one or more RoomPools
// (Kind "multiunit"), referenced by id.
type Listing struct {
	ID        string
	HostID    string
	Managers  []string
	Title     string
	Country   string
	City      string
	Kind      inventory.Kind
	UnitID    string
	PoolIDs   []string
	State     State
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateParams struct {
	ID      string
	HostID  string
	Title   string
	Country string
	City    string
	Kind    inventory.Kind
	UnitID  string
	PoolIDs []string
	Now     time.Time
}

func New(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(params.HostID) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.Kind == inventory.KindSingle && params.UnitID == "" {
		return nil, ErrNoInventory
	}
	if params.Kind == inventory.KindPool && len(params.PoolIDs) == 0 {
		return nil, ErrNoInventory
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:        params.ID,
		HostID:    params.HostID,
		Title:     strings.TrimSpace(params.Title),
		Country:   params.Country,
		City:      params.City,
		Kind:      params.Kind,
		UnitID:    params.UnitID,
		PoolIDs:   append([]string(nil), params.PoolIDs...),
		State:     StateDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.Record(ListingCreated{ListingID: l.ID, HostID: l.HostID, At: now})
	return l, nil
}

func (l *Listing) Activate(now time.Time) {
	if l.State == StateActive {
		return
	}
	l.State = StateActive
	l.UpdatedAt = now.UTC()
	l.Record(ListingActivated{ListingID: l.ID, At: l.UpdatedAt})
}

func (l *Listing) Suspend(now time.Time) {
	l.State = StateSuspended
	l.UpdatedAt = now.UTC()
	l.Record(ListingSuspended{ListingID: l.ID, At: l.UpdatedAt})
}

// Active reports whether the listing can take bookings.
func (l *Listing) Active() bool {
	return l.State == StateActive
}

// Owns reports whether the given inventory id belongs to this listing.
func (l *Listing) Owns(inventoryID string) bool {
	if l.Kind == inventory.KindSingle {
		return l.UnitID == inventoryID
	}
	for _, id := range l.PoolIDs {
		if id == inventoryID {
			return true
		}
	}
	return false
}

// ManagedBy reports whether the user may mutate the listing's calendar:
// the host or any delegated manager.
func (l *Listing) ManagedBy(userID string) bool {
	if l.HostID == userID {
		return true
	}
	for _, m := range l.Managers {
		if m == userID {
			return true
		}
	}
	return false
}

type ListingCreated struct {
	ListingID string
	HostID    string
	At        time.Time
}

func (e ListingCreated) EventName() string     { return "listing.created" }
func (e ListingCreated) AggregateID() string   { return e.ListingID }
func (e ListingCreated) OccurredAt() time.Time { return e.At }

type ListingActivated struct {
	ListingID string
	At        time.Time
}

func (e ListingActivated) EventName() string     { return "listing.activated" }
func (e ListingActivated) AggregateID() string   { return e.ListingID }
func (e ListingActivated) OccurredAt() time.Time { return e.At }

type ListingSuspended struct {
	ListingID string
	At        time.Time
}

func (e ListingSuspended) EventName() string     { return "listing.suspended" }
func (e ListingSuspended) AggregateID() string   { return e.ListingID }
func (e ListingSuspended) OccurredAt() time.Time { return e.At }
