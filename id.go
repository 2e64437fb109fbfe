package booking

import "github.com/xraph/booking/id"

// ID is the primary identifier type for all booking entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
