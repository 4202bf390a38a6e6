package crm

import (
	"embed"

	"github.com/buildgrid-io/buildgrid/modules/crm/infrastructure/persistence"
	"github.com/buildgrid-io/buildgrid/modules/crm/services"
	"github.com/buildgrid-io/buildgrid/pkg/application"
)

//go:embed infrastructure/persistence/schema/crm-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	app.RegisterServices(
		services.NewContactService(persistence.NewContactRepository()),
	)

	return nil
}

func (m *Module) Name() string {
	return "crm"
}
