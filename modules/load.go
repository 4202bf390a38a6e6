package modules

import (
	"github.com/buildgrid-io/buildgrid/modules/crm"
	"github.com/buildgrid-io/buildgrid/modules/dataimport"
	"github.com/buildgrid-io/buildgrid/modules/projects"
	"github.com/buildgrid-io/buildgrid/pkg/application"
)

// Load returns every built-in module in registration order. crm and
// projects come first so the import module can write to their tables.
func Load() []application.Module {
	return []application.Module{
		crm.NewModule(),
		projects.NewModule(),
		dataimport.NewModule(),
	}
}
