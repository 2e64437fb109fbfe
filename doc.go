// Package booking is the coordination core for interpretation-job bookings.
// It matches eligible translators to a booking, arbitrates concurrent
// acceptance so a job is claimed by exactly one translator, drives jobs
// through a bounded lifecycle, and resolves notification intents into
// push, SMS, and email sends.
//
// Booking is designed as a library, not a service. The HTTP layer, request
// validation, and admin listing queries live in the application that imports
// it. Configure a store, a translator directory, and the outbound senders,
// then drive the engine:
//
//	eng, err := engine.New(
//	    engine.WithStore(pgStore),
//	    engine.WithDirectory(dir),
//	    engine.WithMessenger(mailer),
//	)
//
// # Architecture
//
// Booking follows a composable store pattern: the job subsystem and the
// audit trail each define their own store interface and the composite
// store.Store composes them. A single backend implements both. The
// lifecycle engine is pure — it validates a transition and returns
// notification intents; the notify.Dispatcher performs the sends only after
// the state change has been committed, and a delivery failure never rolls
// the state change back.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package booking
