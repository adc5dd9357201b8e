package support

import (
	"context"
	"time"

	"rentnow/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already in ctx or starts a read-only one.
// The returned cleanup is nil when the unit was not started here.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := inject(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// ManagedUnit is a writable unit that may or may not be owned by the caller.
type ManagedUnit struct {
	uow.UnitOfWork
	managed   bool
	committed bool
}

// BeginUnit reuses the transaction middleware's unit when present, otherwise
// starts one that the handler must Commit and Close.
func BeginUnit(ctx context.Context, factory uow.UoWFactory) (*ManagedUnit, context.Context, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &ManagedUnit{UnitOfWork: unit}, ctx, nil
	}
	if factory == nil {
		return nil, ctx, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, err
	}
	return &ManagedUnit{UnitOfWork: unit, managed: true}, inject(ctx, unit), nil
}

// Commit is a no-op for units owned by the middleware.
func (m *ManagedUnit) Commit(ctx context.Context) error {
	if !m.managed {
		return nil
	}
	if err := m.UnitOfWork.Commit(ctx); err != nil {
		return err
	}
	m.committed = true
	return nil
}

// Close rolls back an owned unit that was never committed.
func (m *ManagedUnit) Close(ctx context.Context) {
	if m.managed && !m.committed {
		_ = m.UnitOfWork.Rollback(ctx)
	}
}

func inject(ctx context.Context, unit uow.UnitOfWork) context.Context {
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	return uow.ContextWithUnitOfWork(execCtx, unit)
}

// Now returns clock() in UTC, defaulting to the wall clock.
func Now(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}
