package inventory

import "time"

type InventoryReserved struct {
	UnitID    string
	BookingID string
	Dates     []string
	Rooms     []int
	At        time.Time
}

func (e InventoryReserved) EventName() string     { return "inventory.reserved" }
func (e InventoryReserved) AggregateID() string   { return e.UnitID }
func (e InventoryReserved) OccurredAt() time.Time { return e.At }

type InventoryReleased struct {
	UnitID    string
	BookingID string
	Dates     []string
	At        time.Time
}

func (e InventoryReleased) EventName() string     { return "inventory.released" }
func (e InventoryReleased) AggregateID() string   { return e.UnitID }
func (e InventoryReleased) OccurredAt() time.Time { return e.At }

type DatesBlocked struct {
	UnitID string
	Dates  []string
	At     time.Time
}

func (e DatesBlocked) EventName() string     { return "inventory.dates_blocked" }
func (e DatesBlocked) AggregateID() string   { return e.UnitID }
func (e DatesBlocked) OccurredAt() time.Time { return e.At }

type DatesUnblocked struct {
	UnitID string
	Dates  []string
	At     time.Time
}

func (e DatesUnblocked) EventName() string     { return "inventory.dates_unblocked" }
func (e DatesUnblocked) AggregateID() string   { return e.UnitID }
func (e DatesUnblocked) OccurredAt() time.Time { return e.At }

type DayPriceAdjusted struct {
	UnitID string
	Dates  []string
	At     time.Time
}

func (e DayPriceAdjusted) EventName() string     { return "inventory.day_price_adjusted" }
func (e DayPriceAdjusted) AggregateID() string   { return e.UnitID }
func (e DayPriceAdjusted) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	UnitID string
	Dates  []string
	At     time.Time
}

func (e OverbookingPrevented) EventName() string     { return "inventory.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.UnitID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
