package dataimport

import (
	"embed"

	crmpersistence "github.com/buildgrid-io/buildgrid/modules/crm/infrastructure/persistence"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/analysis"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/ai"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/persistence"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/targets"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/presentation/controllers"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
	projectspersistence "github.com/buildgrid-io/buildgrid/modules/projects/infrastructure/persistence"
	"github.com/buildgrid-io/buildgrid/pkg/application"
	"github.com/buildgrid-io/buildgrid/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/dataimport-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	conf := configuration.Use()
	registry := services.NewTemplateRegistry()

	var analyzer analysis.Analyzer
	if conf.Import.AIAnalysis && conf.OpenAI.Key != "" {
		analyzer = ai.NewOpenAIAnalyzer(conf.OpenAI.Key, conf.OpenAI.BaseURL, conf.OpenAI.Model, registry)
	}

	contactRepo := crmpersistence.NewContactRepository()
	projectRepo := projectspersistence.NewProjectRepository()
	taskRepo := projectspersistence.NewTaskRepository()
	targetRegistry := target.Registry{
		template.EntityContacts: targets.NewContactStore(contactRepo),
		template.EntityProjects: targets.NewProjectStore(projectRepo),
		template.EntityTasks:    targets.NewTaskStore(taskRepo, projectRepo),
	}

	mapping := services.NewMappingService(registry, analyzer, persistence.NewSuggestionRepository())
	wizard := services.NewWizardService(
		persistence.NewSessionRepository(),
		registry,
		mapping,
		services.NewValidationService(),
		services.NewDuplicateService(targetRegistry),
		services.NewResolutionService(),
		services.NewExecutorService(targetRegistry),
		app.EventPublisher(),
		conf.Import.MaxUploadSize,
	)

	app.RegisterServices(registry, mapping, wizard)
	app.RegisterControllers(controllers.NewImportAPIController(app))

	return nil
}

func (m *Module) Name() string {
	return "dataimport"
}
