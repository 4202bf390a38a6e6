package session

import (
	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
)

// ImportCompletedEvent is published once an import reaches a terminal
// completed state, with or without row errors.
type ImportCompletedEvent struct {
	SessionID  uuid.UUID
	TenantID   uuid.UUID
	EntityType template.EntityType
	Result     record.ImportResult
}
