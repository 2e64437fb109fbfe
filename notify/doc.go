// Package notify resolves notification intents into concrete channel sends.
//
// The lifecycle engine and the booking engine emit [Intent] values — who to
// tell, which message, how urgently — after a state change has been
// committed. The [Dispatcher] applies channel policy on top: SMS template
// selection by session kind, OneSignal-style OR-combined tag filters for
// push, per-recipient opt-outs, and deferral of night-time pushes to the
// next business time. Delivery failures are logged and isolated per
// recipient; they never propagate to the caller of a state mutation.
package notify
