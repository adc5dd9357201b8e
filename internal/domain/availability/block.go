package availability

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
	"rentnow/internal/domain/shared/events"
)

var (
	ErrDatesBlocked   = errors.New("availability: dates are blocked")
	ErrBlockNotFound  = errors.New("availability: block not found")
	ErrBlockForbidden = errors.New("availability: block belongs to another host")
)

type BlockID string

// HostBlock is a span of nights the host closed manually. Blocks are never padded.
type HostBlock struct {
	ID         BlockID
	PropertyID listings.PropertyID
	Host       listings.HostID
	Range      daterange.DateRange
	Note       string
	CreatedAt  time.Time
	events.EventRecorder
}

type BlockRepository interface {
	ByID(ctx context.Context, id BlockID) (*HostBlock, error)
	Save(ctx context.Context, block *HostBlock) error
	Delete(ctx context.Context, id BlockID) error
}

func NewHostBlock(id BlockID, property *listings.Property, host listings.HostID, r daterange.DateRange, note string, now time.Time) (*HostBlock, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if property == nil || property.Host != host {
		return nil, ErrBlockForbidden
	}
	block := &HostBlock{
		ID:         id,
		PropertyID: property.ID,
		Host:       host,
		Range:      r,
		Note:       strings.TrimSpace(note),
		CreatedAt:  now.UTC(),
	}
	block.Record(HostBlockCreatedEvent(block, now))
	return block, nil
}

// Remove records the release; the repository performs the delete.
func (b *HostBlock) Remove(host listings.HostID, now time.Time) error {
	if b.Host != host {
		return ErrBlockForbidden
	}
	b.Record(HostBlockRemovedEvent(b, now))
	return nil
}
