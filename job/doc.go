// Package job defines the booking data model — [Job], [Assignment], the
// status enum, and the persistence contract [Store].
//
// A [Job] is a single interpretation booking with a required due time. An
// [Assignment] links one translator to one job; historical assignments are
// retained, never deleted, and at most one assignment per job is active
// (neither cancelled nor completed) at any time. [Store.ClaimJob] is the
// atomicity primitive that flips a pending job to assigned and creates the
// active assignment in a single conditional operation.
package job
