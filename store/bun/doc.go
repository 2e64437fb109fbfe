// Package bunstore implements store.Store using the Bun ORM with PostgreSQL
// dialect. Suitable for teams already running Bun elsewhere in their stack.
//
// The caller owns the *bun.DB lifecycle — bunstore never closes it. Open
// builds a db handle from a DSN, or construct one yourself for custom pools:
//
//	s := bunstore.New(bunstore.Open(dsn))
package bunstore
