package availability

import (
	"time"

	"rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

type HostBlockCreated struct {
	BlockID    string
	PropertyID string
	Range      daterange.DateRange
	At         time.Time
}

func (e HostBlockCreated) EventName() string     { return "availability.block_created" }
func (e HostBlockCreated) AggregateID() string   { return e.PropertyID }
func (e HostBlockCreated) OccurredAt() time.Time { return e.At }

type HostBlockRemoved struct {
	BlockID    string
	PropertyID string
	Range      daterange.DateRange
	At         time.Time
}

func (e HostBlockRemoved) EventName() string     { return "availability.block_removed" }
func (e HostBlockRemoved) AggregateID() string   { return e.PropertyID }
func (e HostBlockRemoved) OccurredAt() time.Time { return e.At }

type ConflictDetected struct {
	PropertyID string
	Range      daterange.DateRange
	Dates      []string
	At         time.Time
}

func (e ConflictDetected) EventName() string     { return "availability.conflict_detected" }
func (e ConflictDetected) AggregateID() string   { return e.PropertyID }
func (e ConflictDetected) OccurredAt() time.Time { return e.At }

func HostBlockCreatedEvent(b *HostBlock, at time.Time) HostBlockCreated {
	return HostBlockCreated{BlockID: string(b.ID), PropertyID: string(b.PropertyID), Range: b.Range, At: at.UTC()}
}

func HostBlockRemovedEvent(b *HostBlock, at time.Time) HostBlockRemoved {
	return HostBlockRemoved{BlockID: string(b.ID), PropertyID: string(b.PropertyID), Range: b.Range, At: at.UTC()}
}

func ConflictDetectedEvent(id listings.PropertyID, r daterange.DateRange, report ConflictReport, at time.Time) ConflictDetected {
	return ConflictDetected{PropertyID: string(id), Range: r, Dates: report.DateStrings(), At: at.UTC()}
}
