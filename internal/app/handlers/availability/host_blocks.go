package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/outbox"
	"rentnow/internal/app/principal"
	"rentnow/internal/app/uow"
	domainavailability "rentnow/internal/domain/availability"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

const (
	createHostBlockKey = "availability.block.create"
	removeHostBlockKey = "availability.block.remove"
)

type CreateHostBlockCommand struct {
	PropertyID string `validate:"required"`
	HostID     string `validate:"required"`
	Start      string `validate:"required,isodate"`
	End        string `validate:"required,isodate"`
	Note       string `validate:"max=280"`
}

func (c CreateHostBlockCommand) Key() string { return createHostBlockKey }

func (c CreateHostBlockCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleHost}
}

type CreateHostBlockHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	NewID      func() string
	Now        func() time.Time
}

// Handle rejects blocks over nights already held by a booking or another block.
// Prep buffers do not apply: hosts may close the turnover nights themselves.
func (h *CreateHostBlockHandler) Handle(ctx context.Context, cmd CreateHostBlockCommand) (dto.HostBlock, error) {
	dr, err := daterange.Parse(cmd.Start, cmd.End)
	if err != nil {
		return dto.HostBlock{}, err
	}
	unit, execCtx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostBlock{}, err
	}
	defer unit.Close(execCtx)

	propertyID := domainlistings.PropertyID(cmd.PropertyID)
	property, err := unit.Properties().ByID(execCtx, propertyID)
	if err != nil {
		return dto.HostBlock{}, err
	}
	now := handlersupport.Now(h.Now)
	block, err := domainavailability.NewHostBlock(domainavailability.BlockID(h.newID()), property, domainlistings.HostID(cmd.HostID), dr, cmd.Note, now)
	if err != nil {
		return dto.HostBlock{}, err
	}

	rows, err := unit.Availability().ListBlockingRows(execCtx, propertyID, dr)
	if err != nil {
		return dto.HostBlock{}, err
	}
	resolver := domainavailability.NewResolver(unit.Availability())
	if _, hits := domainavailability.FindConflicts(dr, resolver.Expand(rows, 0, "")); len(hits) > 0 {
		for _, hit := range hits {
			if hit.Source == domainavailability.SourceBooking {
				return dto.HostBlock{}, domainbooking.ErrDatesUnavailable
			}
		}
		return dto.HostBlock{}, domainavailability.ErrDatesBlocked
	}

	if err := unit.Blocks().Save(execCtx, block); err != nil {
		return dto.HostBlock{}, err
	}
	if err := outbox.Drain(execCtx, h.Outbox, h.Encoder, block); err != nil {
		return dto.HostBlock{}, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return dto.HostBlock{}, err
	}
	return dto.MapHostBlock(block), nil
}

func (h *CreateHostBlockHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

type RemoveHostBlockCommand struct {
	PropertyID string `validate:"required"`
	BlockID    string `validate:"required"`
	HostID     string `validate:"required"`
}

func (c RemoveHostBlockCommand) Key() string { return removeHostBlockKey }

func (c RemoveHostBlockCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleHost}
}

type RemoveHostBlockHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *RemoveHostBlockHandler) Handle(ctx context.Context, cmd RemoveHostBlockCommand) (dto.HostBlock, error) {
	unit, execCtx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostBlock{}, err
	}
	defer unit.Close(execCtx)

	block, err := unit.Blocks().ByID(execCtx, domainavailability.BlockID(cmd.BlockID))
	if err != nil {
		return dto.HostBlock{}, err
	}
	if string(block.PropertyID) != cmd.PropertyID {
		return dto.HostBlock{}, domainavailability.ErrBlockNotFound
	}
	if err := block.Remove(domainlistings.HostID(cmd.HostID), handlersupport.Now(h.Now)); err != nil {
		return dto.HostBlock{}, err
	}
	if err := unit.Blocks().Delete(execCtx, block.ID); err != nil {
		return dto.HostBlock{}, err
	}
	if err := outbox.Drain(execCtx, h.Outbox, h.Encoder, block); err != nil {
		return dto.HostBlock{}, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return dto.HostBlock{}, err
	}
	return dto.MapHostBlock(block), nil
}

var (
	_ commands.Handler[CreateHostBlockCommand, dto.HostBlock] = (*CreateHostBlockHandler)(nil)
	_ commands.Handler[RemoveHostBlockCommand, dto.HostBlock] = (*RemoveHostBlockHandler)(nil)
)
