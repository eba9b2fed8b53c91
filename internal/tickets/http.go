// Copyright (c) 2026 Voxdesk. All rights reserved.

// HTTP delivery layer for projects and tickets.
//
// # Routing Strategy
//
//   - All routes require an authenticated session.
//   - Destructive project operations additionally require [sec.RoleAgent].
//
// The handler translates between the web/JSON layer and the internal domain
// [Service].

package tickets

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/anujmtekyz/voxdesk/internal/platform/apperr"
	"github.com/anujmtekyz/voxdesk/internal/platform/middleware"
	requestutil "github.com/anujmtekyz/voxdesk/internal/platform/request"
	"github.com/anujmtekyz/voxdesk/internal/platform/respond"
	"github.com/anujmtekyz/voxdesk/internal/platform/sec"
	"github.com/anujmtekyz/voxdesk/internal/platform/validate"
	"github.com/anujmtekyz/voxdesk/pkg/pagination"
)

// Handler implements the HTTP layer for ticket management.
type Handler struct {
	service *Service
}

// NewHandler constructs a new tickets [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// TicketRoutes returns a [chi.Router] for the /tickets surface.
func (handler *Handler) TicketRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listTickets)
	router.Post("/", handler.createTicket)
	router.Get("/{id}", handler.getTicket)
	router.Patch("/{id}", handler.updateTicket)
	router.Delete("/{id}", handler.deleteTicket)

	return router
}

// ProjectRoutes returns a [chi.Router] for the /projects surface.
func (handler *Handler) ProjectRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listProjects)
	router.Post("/", handler.createProject)
	router.Get("/{identifier}", handler.getProject)

	router.Group(func(agent chi.Router) {
		agent.Use(middleware.RequireRole(sec.RoleAgent))
		agent.Delete("/{id}", handler.deleteProject)
	})

	return router
}

// # Request Payloads

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createTicketRequest struct {
	ProjectID   string  `json:"projectId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Transcript  string  `json:"transcript"`
	Priority    string  `json:"priority"`
	AssigneeID  *string `json:"assigneeId"`
}

type updateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssigneeID  *string `json:"assigneeId"`
}

// # Project Endpoints

/*
GET /projects

Response:
  - 200: Paginated list of projects
*/
func (handler *Handler) listProjects(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	projects, total, err := handler.service.ListProjects(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, projects, pagination.NewMeta(params.Page, params.Limit, int(total)))
}

/*
POST /projects

Request:
  - Body: createProjectRequest (Name, Description)

Response:
  - 201: Project: Created entity
  - 409: ErrConflict: Name already in use
*/
func (handler *Handler) createProject(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createProjectRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 120)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	project, err := handler.service.CreateProject(request.Context(), CreateProjectInput{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     userID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, project)
}

/*
GET /projects/{identifier}

Description: Resolves by ID first, then by slug.

Response:
  - 200: Project
  - 404: ErrNotFound
*/
func (handler *Handler) getProject(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "identifier")

	project, err := handler.service.GetProject(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, project)
}

/*
DELETE /projects/{id}

Response:
  - 204: No Content
  - 404: ErrNotFound
*/
func (handler *Handler) deleteProject(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteProject(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Ticket Endpoints

/*
GET /tickets

Description: Filterable by project, status, priority, assignee, and a text
query matched against title and transcript.

Query parameters: projectId, status (comma-separated), priority
(comma-separated), assigneeId, reporterId, q, page, limit.

Response:
  - 200: Paginated list of tickets
*/
func (handler *Handler) listTickets(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()

	filter := Filter{
		ProjectID:  query.Get("projectId"),
		AssigneeID: query.Get("assigneeId"),
		ReporterID: query.Get("reporterId"),
		Query:      query.Get("q"),
	}

	for _, raw := range splitList(query.Get("status")) {
		status := Status(raw)
		if !status.IsValid() {
			respond.Error(writer, request, apperr.BadRequest("Unknown status: "+raw))
			return
		}
		filter.Status = append(filter.Status, status)
	}
	for _, raw := range splitList(query.Get("priority")) {
		priority := Priority(raw)
		if !priority.IsValid() {
			respond.Error(writer, request, apperr.BadRequest("Unknown priority: "+raw))
			return
		}
		filter.Priority = append(filter.Priority, priority)
	}

	result, total, err := handler.service.ListTickets(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, result, pagination.NewMeta(params.Page, params.Limit, int(total)))
}

// splitList parses a comma-separated query value, dropping empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

/*
POST /tickets

Request:
  - Body: createTicketRequest (ProjectID, Title, Description, Transcript, Priority, AssigneeID)

Response:
  - 201: Ticket: Created entity
  - 404: ErrNotFound: Unknown project
*/
func (handler *Handler) createTicket(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createTicketRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldProjectID, input.ProjectID).
		UUID(FieldProjectID, input.ProjectID).
		Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, 200)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ticket, err := handler.service.CreateTicket(request.Context(), CreateTicketInput{
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Description: input.Description,
		Transcript:  input.Transcript,
		Priority:    Priority(input.Priority),
		ReporterID:  userID,
		AssigneeID:  input.AssigneeID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, ticket)
}

/*
GET /tickets/{id}

Response:
  - 200: Ticket
  - 404: ErrNotFound
*/
func (handler *Handler) getTicket(writer http.ResponseWriter, request *http.Request) {
	ticket, err := handler.service.GetTicket(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, ticket)
}

/*
PATCH /tickets/{id}

Request:
  - Body: updateTicketRequest (partial; nil fields untouched)

Response:
  - 200: Ticket: Updated entity
  - 404: ErrNotFound
  - 409: ErrConflict: Ticket is closed
*/
func (handler *Handler) updateTicket(writer http.ResponseWriter, request *http.Request) {
	var input updateTicketRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	update := UpdateTicketInput{
		Title:       input.Title,
		Description: input.Description,
		AssigneeID:  input.AssigneeID,
	}
	if input.Status != nil {
		status := Status(*input.Status)
		update.Status = &status
	}
	if input.Priority != nil {
		priority := Priority(*input.Priority)
		update.Priority = &priority
	}

	ticket, err := handler.service.UpdateTicket(request.Context(), requestutil.Param(request, "id"), update)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, ticket)
}

/*
DELETE /tickets/{id}

Response:
  - 204: No Content
  - 404: ErrNotFound
*/
func (handler *Handler) deleteTicket(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteTicket(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
