package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/tabular"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
	"github.com/buildgrid-io/buildgrid/pkg/application"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
	"github.com/buildgrid-io/buildgrid/pkg/configuration"
	"github.com/buildgrid-io/buildgrid/pkg/httpapi"
	"github.com/buildgrid-io/buildgrid/pkg/middleware"
	"github.com/buildgrid-io/buildgrid/pkg/serrors"
)

// ImportAPIController is the JSON backend of the GUI import wizard.
type ImportAPIController struct {
	wizard   *services.WizardService
	registry *services.TemplateRegistry
}

func NewImportAPIController(app application.Application) application.Controller {
	return &ImportAPIController{
		wizard:   app.Service(services.WizardService{}).(*services.WizardService),
		registry: app.Service(services.TemplateRegistry{}).(*services.TemplateRegistry),
	}
}

func (c *ImportAPIController) Key() string {
	return "/import/api"
}

func (c *ImportAPIController) Register(r *mux.Router) {
	router := r.PathPrefix("/import/api").Subrouter()

	// The executor needs per-row autocommit, so the execute route stays
	// outside the request transaction. Template downloads are read-only
	// configuration and skip it too.
	router.HandleFunc("/sessions/{id}/execute", c.execute).Methods(http.MethodPost)
	router.HandleFunc("/templates", c.templates).Methods(http.MethodGet)
	router.HandleFunc("/templates/{type}/csv", c.templateCSV).Methods(http.MethodGet)
	router.HandleFunc("/templates/{type}/xlsx", c.templateXLSX).Methods(http.MethodGet)

	tx := router.NewRoute().Subrouter()
	tx.Use(middleware.WithTransaction())
	tx.HandleFunc("/sessions", c.upload).Methods(http.MethodPost)
	tx.HandleFunc("/sessions/{id}", c.get).Methods(http.MethodGet)
	tx.HandleFunc("/sessions/{id}/analyze", c.analyze).Methods(http.MethodPost)
	tx.HandleFunc("/sessions/{id}/suggestions", c.suggestions).Methods(http.MethodGet)
	tx.HandleFunc("/sessions/{id}/mapping", c.confirmMapping).Methods(http.MethodPost)
	tx.HandleFunc("/sessions/{id}/validate", c.validate).Methods(http.MethodPost)
	tx.HandleFunc("/sessions/{id}/duplicates", c.duplicates).Methods(http.MethodPost)
	tx.HandleFunc("/sessions/{id}/cancel", c.cancel).Methods(http.MethodPost)
}

type sessionResponse struct {
	ID         uuid.UUID            `json:"id"`
	Filename   string               `json:"filename"`
	FileSize   int64                `json:"file_size"`
	EntityType string               `json:"entity_type,omitempty"`
	Confidence int                  `json:"confidence"`
	Status     string               `json:"status"`
	RowCount   int                  `json:"row_count"`
	Headers    []string             `json:"headers"`
	Preview    []record.RawRow      `json:"preview"`
	Mapping    map[string]string    `json:"mapping,omitempty"`
	Result     *record.ImportResult `json:"result,omitempty"`
}

func toSessionResponse(s session.Session, previewRows int) sessionResponse {
	return sessionResponse{
		ID:         s.ID(),
		Filename:   s.Filename(),
		FileSize:   s.FileSize(),
		EntityType: string(s.EntityType()),
		Confidence: s.Confidence(),
		Status:     string(s.Status()),
		RowCount:   s.RowCount(),
		Headers:    s.Rows().Headers,
		Preview:    s.Preview(previewRows),
		Mapping:    s.Mapping(),
		Result:     s.Result(),
	}
}

func (c *ImportAPIController) upload(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	if err := r.ParseMultipartForm(conf.Import.MaxUploadSize); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_BAD_UPLOAD", "expected multipart form with a file field", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_BAD_UPLOAD", "missing file field", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_BAD_UPLOAD", "unreadable file", nil)
		return
	}

	sess, err := c.wizard.Upload(r.Context(), header.Filename, data)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toSessionResponse(sess, conf.Import.PreviewRows))
}

func (c *ImportAPIController) get(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := c.wizard.Get(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toSessionResponse(sess, configuration.Use().Import.PreviewRows))
}

func (c *ImportAPIController) analyze(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	sess, result, err := c.wizard.Analyze(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"session":     toSessionResponse(sess, configuration.Use().Import.PreviewRows),
		"suggestions": result.Suggestions,
	})
}

func (c *ImportAPIController) suggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	suggestions, err := c.wizard.Suggestions(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

type confirmMappingRequest struct {
	EntityType string            `json:"entity_type"`
	Mapping    map[string]string `json:"mapping"`
}

func (c *ImportAPIController) confirmMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	var req confirmMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	sess, err := c.wizard.ConfirmMapping(r.Context(), id, template.EntityType(req.EntityType), req.Mapping)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toSessionResponse(sess, configuration.Use().Import.PreviewRows))
}

func (c *ImportAPIController) validate(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	result, err := c.wizard.Validate(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"valid_count": len(result.Valid),
		"errors":      result.Errors,
	})
}

func (c *ImportAPIController) duplicates(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	result, err := c.wizard.DetectDuplicates(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"clean_count": len(result.Clean),
		"duplicates":  result.Duplicates,
	})
}

type executeRequest struct {
	Resolutions []struct {
		Index      int       `json:"index"`
		Kind       string    `json:"kind"`
		ExistingID uuid.UUID `json:"existing_id,omitempty"`
	} `json:"resolutions"`
}

func (c *ImportAPIController) execute(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	var req executeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_BAD_REQUEST", "invalid JSON body", nil)
			return
		}
	}
	resolutions := make(map[int]record.Resolution, len(req.Resolutions))
	for _, res := range req.Resolutions {
		resolutions[res.Index] = record.Resolution{
			Kind:       record.ResolutionKind(res.Kind),
			ExistingID: res.ExistingID,
		}
	}

	result, err := c.wizard.Execute(r.Context(), id, resolutions)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, result)
}

func (c *ImportAPIController) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := c.wizard.Cancel(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toSessionResponse(sess, configuration.Use().Import.PreviewRows))
}

func (c *ImportAPIController) templates(w http.ResponseWriter, r *http.Request) {
	types := c.registry.EntityTypes()
	out := make([]map[string]any, 0, len(types))
	for _, entity := range types {
		tmpl, err := c.registry.Template(entity)
		if err != nil {
			c.writeError(w, err)
			return
		}
		out = append(out, map[string]any{
			"entity_type": entity,
			"headers":     tmpl.Headers(),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"templates": out})
}

func (c *ImportAPIController) templateCSV(w http.ResponseWriter, r *http.Request) {
	entity := template.EntityType(mux.Vars(r)["type"])
	data, err := c.registry.TemplateCSV(entity)
	if err != nil {
		c.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-template.csv", entity))
	_, _ = w.Write(data)
}

func (c *ImportAPIController) templateXLSX(w http.ResponseWriter, r *http.Request) {
	entity := template.EntityType(mux.Vars(r)["type"])
	data, err := c.registry.TemplateXLSX(entity)
	if err != nil {
		c.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-template.xlsx", entity))
	_, _ = w.Write(data)
}

func (c *ImportAPIController) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_BAD_REQUEST", "invalid session id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (c *ImportAPIController) writeError(w http.ResponseWriter, err error) {
	var coded *serrors.Error
	if errors.As(err, &coded) {
		_ = httpapi.WriteError(w, statusForCode(coded.Code), coded.Code, err.Error(), nil)
		return
	}
	switch {
	case errors.Is(err, session.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "IMPORT_SESSION_NOT_FOUND", "import session not found", nil)
	case errors.Is(err, session.ErrInvalidTransition):
		_ = httpapi.WriteError(w, http.StatusConflict, "IMPORT_INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, tabular.ErrUnsupportedFormat), errors.Is(err, tabular.ErrNoHeader):
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_PARSE_FAILED", err.Error(), nil)
	case errors.Is(err, composables.ErrNoTenant):
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "TENANT_REQUIRED", "missing tenant", nil)
	default:
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func statusForCode(code string) int {
	switch code {
	case "IMPORT_FILE_TOO_LARGE":
		return http.StatusRequestEntityTooLarge
	case "IMPORT_INVALID_STATE":
		return http.StatusConflict
	case "IMPORT_ANALYSIS_FAILED":
		return http.StatusBadGateway
	case "IMPORT_UNKNOWN_ENTITY":
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
