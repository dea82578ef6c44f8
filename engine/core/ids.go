package core

import "github.com/google/uuid"

// ID is an opaque identifier. The Template Materializer mints one for
// every task it creates; Step and Workflow ids are never minted here —
// they are the stable strings carried by the template (spec §3).
type ID string

// NewID mints a fresh identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}
