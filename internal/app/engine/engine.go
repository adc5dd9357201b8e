// Package engine assembles the command and query buses with their handlers
// and middleware. The HTTP server, the payment consumer and the sweeper all
// dispatch through it.
package engine

import (
	"errors"
	"log/slog"
	"time"

	"rentnow/internal/app/commands"
	availabilityapp "rentnow/internal/app/handlers/availability"
	bookingapp "rentnow/internal/app/handlers/booking"
	listingapp "rentnow/internal/app/handlers/listings"
	paymentsapp "rentnow/internal/app/handlers/payments"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/middleware"
	"rentnow/internal/app/outbox"
	"rentnow/internal/app/queries"
	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
	domainpayment "rentnow/internal/domain/payment"
)

var ErrMissingDependency = errors.New("engine: missing dependency")

type Settings struct {
	SymmetricPrepBuffer bool
	Windows             domainbooking.Windows
	ReturnPollMaxWait   time.Duration
}

type Deps struct {
	UoWFactory  uow.UoWFactory
	OutboxSink  outbox.Sink
	Idempotency middleware.IdempotencyStore
	Validator   middleware.Validator
	Metrics     handlersupport.Metrics
	Logger      *slog.Logger
	Settings    Settings
	NewID       func() string
	Now         func() time.Time
}

type Engine struct {
	Commands commands.Bus
	Queries  queries.Bus
	// CommandKeys and QueryKeys list registered handlers, for startup logs.
	CommandKeys []string
	QueryKeys   []string
}

func Build(d Deps) (Engine, error) {
	switch {
	case d.UoWFactory == nil:
		return Engine{}, errors.Join(ErrMissingDependency, errors.New("uow factory"))
	case d.OutboxSink == nil:
		return Engine{}, errors.Join(ErrMissingDependency, errors.New("outbox sink"))
	case d.Idempotency == nil:
		return Engine{}, errors.Join(ErrMissingDependency, errors.New("idempotency store"))
	case d.Validator == nil:
		return Engine{}, errors.Join(ErrMissingDependency, errors.New("validator"))
	}
	box := outbox.NewBuffered(d.OutboxSink)
	encoder := outbox.JSONEventEncoder{IDGenerator: d.NewID}
	prep := d.Settings.SymmetricPrepBuffer

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory:    d.UoWFactory,
		Outbox:        box,
		Encoder:       encoder,
		Windows:       d.Settings.Windows,
		SymmetricPrep: prep,
		Metrics:       d.Metrics,
		Logger:        d.Logger,
		NewID:         d.NewID,
		Now:           d.Now,
	})
	commands.RegisterHandler(commandBus, bookingapp.RespondBookingCommand{}.Key(), &bookingapp.RespondBookingHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     box,
		Encoder:    encoder,
		Metrics:    d.Metrics,
		Now:        d.Now,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     box,
		Encoder:    encoder,
		Metrics:    d.Metrics,
		Now:        d.Now,
	})
	commands.RegisterHandler(commandBus, bookingapp.ExpireBookingsCommand{}.Key(), &bookingapp.ExpireBookingsHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     box,
		Encoder:    encoder,
		Metrics:    d.Metrics,
		Logger:     d.Logger,
		Now:        d.Now,
	})
	commands.RegisterHandler(commandBus, availabilityapp.CreateHostBlockCommand{}.Key(), &availabilityapp.CreateHostBlockHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     box,
		Encoder:    encoder,
		NewID:      d.NewID,
		Now:        d.Now,
	})
	commands.RegisterHandler(commandBus, availabilityapp.RemoveHostBlockCommand{}.Key(), &availabilityapp.RemoveHostBlockHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     box,
		Encoder:    encoder,
		Now:        d.Now,
	})
	commands.RegisterHandler(commandBus, paymentsapp.RecordPaymentCommand{}.Key(), &paymentsapp.RecordPaymentHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     box,
		Encoder:    encoder,
		Metrics:    d.Metrics,
		Logger:     d.Logger,
		Now:        d.Now,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory:    d.UoWFactory,
		SymmetricPrep: prep,
		Metrics:       d.Metrics,
		Logger:        d.Logger,
	})
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{
		UoWFactory:    d.UoWFactory,
		SymmetricPrep: prep,
		Now:           d.Now,
	})
	queries.RegisterHandler(queryBus, bookingapp.QuoteStayQuery{}.Key(), &bookingapp.QuoteStayHandler{
		UoWFactory:    d.UoWFactory,
		SymmetricPrep: prep,
	})
	queries.RegisterHandler(queryBus, bookingapp.GetCancellationTermsQuery{}.Key(), &bookingapp.GetCancellationTermsHandler{
		UoWFactory: d.UoWFactory,
	})
	queries.RegisterHandler(queryBus, listingapp.SearchCatalogQuery{}.Key(), &listingapp.SearchCatalogHandler{
		UoWFactory:    d.UoWFactory,
		SymmetricPrep: prep,
	})
	queries.RegisterHandler(queryBus, paymentsapp.GetReturnStateQuery{}.Key(), &paymentsapp.GetReturnStateHandler{
		UoWFactory: d.UoWFactory,
		Reconciler: domainpayment.NewReconciler(d.Settings.ReturnPollMaxWait),
	})

	// Events leave the buffer only after Transaction committed.
	authorizer := middleware.RoleAuthorizer{}
	return Engine{
		Commands: middleware.ChainCommands(
			commandBus,
			middleware.Authorization(authorizer),
			middleware.Validation(d.Validator),
			middleware.Idempotency(d.Idempotency, nil),
			middleware.OutboxFlush(box),
			middleware.Transaction(d.UoWFactory, nil),
		),
		Queries: middleware.ChainQueries(
			queryBus,
			middleware.QueryAuthorization(authorizer),
			middleware.QueryValidation(d.Validator),
		),
		CommandKeys: commandBus.Keys(),
		QueryKeys:   queryBus.Keys(),
	}, nil
}
