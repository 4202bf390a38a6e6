package projects

import (
	"embed"

	"github.com/buildgrid-io/buildgrid/modules/projects/infrastructure/persistence"
	"github.com/buildgrid-io/buildgrid/modules/projects/services"
	"github.com/buildgrid-io/buildgrid/pkg/application"
)

//go:embed infrastructure/persistence/schema/projects-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	app.RegisterServices(
		services.NewProjectService(persistence.NewProjectRepository()),
		services.NewTaskService(persistence.NewTaskRepository()),
	)

	return nil
}

func (m *Module) Name() string {
	return "projects"
}
