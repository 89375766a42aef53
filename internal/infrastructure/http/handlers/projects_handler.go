package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/admission"
	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/application/project"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/middleware"
)

// ProjectsHandler handles /projects. Requires JWT auth.
type ProjectsHandler struct {
	admission    *admission.Controller
	listProjects *project.ListProjects
	getProject   *project.GetProject
	emitter      ports.WebhookEmitter
	validate     *validator.Validate
	log          zerolog.Logger
}

func NewProjectsHandler(ctrl *admission.Controller, listProjects *project.ListProjects, getProject *project.GetProject, emitter ports.WebhookEmitter, log zerolog.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		admission:    ctrl,
		listProjects: listProjects,
		getProject:   getProject,
		emitter:      emitter,
		validate:     validator.New(),
		log:          log,
	}
}

// Create handles POST /projects. Body: { "value": "..." }. The first prompt
// is admitted like any other, and the project is created with it.
// Returns 201 { "project": {...}, "message": {...} }.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, plan := middleware.AuthFromContext(r.Context())
	if userID == "" {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	body, ok := decodePrompt(w, r, h.validate)
	if !ok {
		return
	}
	result, err := h.admission.AdmitNewProject(r.Context(), admission.NewProjectInput{UserID: userID, Plan: plan, Value: body.Value})
	middleware.RecordAdmission(admissionOutcome(err), string(plan))
	if err != nil {
		AuditEmit(h.log, r, h.emitter, admissionAudit{event: "message.rejected", userID: userID.String(), err: err.Error()})
		status, code, known := domainErrStatus(err)
		if !known || errors.Is(err, domerrors.ErrAdmissionFailed) {
			h.log.Error().Err(err).Msg("create project failed")
		}
		writeErr(w, status, code, publicMessage(err))
		return
	}
	AuditEmit(h.log, r, h.emitter, admissionAudit{
		event:     "message.admitted",
		projectID: result.Project.ID.String(),
		userID:    userID.String(),
		messageID: result.Message.ID.String(),
		success:   true,
	})
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"project": toProjectResponse(result.Project),
		"message": toMessageResponse(result.Message),
	})
}

// List handles GET /projects. Returns { "projects": [...] }, most recently updated first.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.AuthFromContext(r.Context())
	if userID == "" {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	projects, err := h.listProjects.Execute(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list projects failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": out})
}

// Get handles GET /projects/{projectID}.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.AuthFromContext(r.Context())
	if userID == "" {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "", domerrors.ErrProjectNotFound.Error())
		return
	}
	p, err := h.getProject.Execute(r.Context(), project.GetProjectInput{UserID: userID, ProjectID: projectID})
	if err != nil {
		if errors.Is(err, domerrors.ErrProjectNotFound) {
			writeErr(w, http.StatusNotFound, "", err.Error())
			return
		}
		h.log.Error().Err(err).Msg("get project failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// Templates handles GET /templates.
func (h *ProjectsHandler) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": project.Templates})
}
