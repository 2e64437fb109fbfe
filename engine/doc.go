// Package engine wires the booking subsystems together and provides the
// application-level operations: create, announce, accept, cancel, end,
// no-show, admin update, reopen, and expiry.
//
// The engine package exists to break an import cycle: the root booking
// package defines Entity and Config (imported by job, notify, etc.) and
// therefore cannot import those packages back. Engine sits above all
// subsystem packages and below the application layer.
//
// # Building an Engine
//
//	st := memory.New()
//	eng, err := engine.New(
//		engine.WithStore(st),
//		engine.WithDirectory(dir),
//		engine.WithMessenger(mailer),
//		engine.WithPushSender(pusher),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := eng.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Stop(ctx)
//
// Every mutating operation follows the same shape: validate, mutate state
// through the store, record an audit entry, emit extension hooks, and only
// then dispatch notifications. Delivery failures are logged and never roll
// back a committed mutation.
package engine
