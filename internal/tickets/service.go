// Copyright (c) 2026 Voxdesk. All rights reserved.

package tickets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anujmtekyz/voxdesk/internal/platform/apperr"
	"github.com/anujmtekyz/voxdesk/pkg/pagination"
	"github.com/anujmtekyz/voxdesk/pkg/slug"
	"github.com/anujmtekyz/voxdesk/pkg/uuid"
)

// Service implements project and ticket use cases.
type Service struct {
	projectRepository ProjectRepository
	ticketRepository  TicketRepository
	logger            *slog.Logger
}

// NewService constructs a new tickets [Service] with its dependencies.
func NewService(projectRepo ProjectRepository, ticketRepo TicketRepository, logger *slog.Logger) *Service {
	return &Service{
		projectRepository: projectRepo,
		ticketRepository:  ticketRepo,
		logger:            logger,
	}
}

// # Projects

// CreateProjectInput holds the data required to create a project.
type CreateProjectInput struct {
	Name        string
	Description string
	OwnerID     string
}

/*
CreateProject persists a new project with a derived URL-safe slug.

Parameters:
  - context: context.Context
  - input: CreateProjectInput

Returns:
  - *Project: Created entity
  - err: Conflict (slug taken) or storage errors
*/
func (service *Service) CreateProject(context context.Context, input CreateProjectInput) (*Project, error) {
	projectSlug := slug.From(input.Name)

	// Reject duplicate slugs with a client-safe Conflict err.
	if _, err := service.projectRepository.FindBySlug(context, projectSlug); err == nil {
		return nil, apperr.Conflict("A project with this name already exists")
	}

	project := &Project{
		ID:          uuid.New(),
		Name:        input.Name,
		Slug:        projectSlug,
		Description: input.Description,
		OwnerID:     input.OwnerID,
	}

	if err := service.projectRepository.Create(context, project); err != nil {
		return nil, fmt.Errorf("tickets_service_create_project_failed: %w", err)
	}

	return project, nil
}

// GetProject resolves a project by ID, falling back to slug lookup.
func (service *Service) GetProject(context context.Context, identifier string) (*Project, error) {
	project, err := service.projectRepository.FindByID(context, identifier)
	if err == nil {
		return project, nil
	}
	return service.projectRepository.FindBySlug(context, identifier)
}

// ListProjects returns a page of active projects.
func (service *Service) ListProjects(context context.Context, params pagination.Params) ([]*Project, int64, error) {
	return service.projectRepository.List(context, params)
}

// DeleteProject soft-deletes a project.
func (service *Service) DeleteProject(context context.Context, id string) error {
	if _, err := service.projectRepository.FindByID(context, id); err != nil {
		return err
	}
	return service.projectRepository.SoftDelete(context, id)
}

// # Tickets

// CreateTicketInput holds the data required to file a ticket.
type CreateTicketInput struct {
	ProjectID   string
	Title       string
	Description string
	Transcript  string
	Priority    Priority
	ReporterID  string
	AssigneeID  *string
}

/*
CreateTicket files a new ticket against a project.

Description: Tickets open in [StatusOpen]. Voice-captured tickets carry the
raw transcript so the dictation remains auditable after editing.

Parameters:
  - context: context.Context
  - input: CreateTicketInput

Returns:
  - *Ticket: Created entity
  - err: NotFound (unknown project), validation, or storage errors
*/
func (service *Service) CreateTicket(context context.Context, input CreateTicketInput) (*Ticket, error) {

	// The project must exist and be active.
	if _, err := service.projectRepository.FindByID(context, input.ProjectID); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperr.BadRequest("Unknown priority")
	}

	ticket := &Ticket{
		ID:          uuid.New(),
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Description: input.Description,
		Transcript:  input.Transcript,
		Status:      StatusOpen,
		Priority:    priority,
		ReporterID:  input.ReporterID,
		AssigneeID:  input.AssigneeID,
	}

	if err := service.ticketRepository.Create(context, ticket); err != nil {
		return nil, fmt.Errorf("tickets_service_create_ticket_failed: %w", err)
	}

	service.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"project_id", ticket.ProjectID,
		"voice_intake", ticket.Transcript != "",
	)

	return ticket, nil
}

// GetTicket resolves a ticket by ID.
func (service *Service) GetTicket(context context.Context, id string) (*Ticket, error) {
	return service.ticketRepository.FindByID(context, id)
}

// ListTickets returns a filtered page of tickets.
func (service *Service) ListTickets(context context.Context, filter Filter, params pagination.Params) ([]*Ticket, int64, error) {
	return service.ticketRepository.List(context, filter, params)
}

// UpdateTicketInput holds the mutable fields of a ticket. Nil pointers leave
// the corresponding field unchanged.
type UpdateTicketInput struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	AssigneeID  *string
}

/*
UpdateTicket applies a partial update to a ticket.

Description: Closed tickets are immutable except for reopening. Status and
priority values are validated before persisting.

Parameters:
  - context: context.Context
  - id: string
  - input: UpdateTicketInput

Returns:
  - *Ticket: Updated entity
  - err: NotFound, BadRequest, or storage errors
*/
func (service *Service) UpdateTicket(context context.Context, id string, input UpdateTicketInput) (*Ticket, error) {
	ticket, err := service.ticketRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if ticket.Status == StatusClosed {
		// Reopening is the only permitted mutation on a closed ticket.
		if input.Status == nil || *input.Status == StatusClosed {
			return nil, apperr.Conflict("Closed tickets cannot be modified")
		}
	}

	if input.Title != nil {
		ticket.Title = *input.Title
	}
	if input.Description != nil {
		ticket.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, apperr.BadRequest("Unknown status")
		}
		ticket.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, apperr.BadRequest("Unknown priority")
		}
		ticket.Priority = *input.Priority
	}
	if input.AssigneeID != nil {
		if *input.AssigneeID == "" {
			ticket.AssigneeID = nil
		} else {
			ticket.AssigneeID = input.AssigneeID
		}
	}

	if err := service.ticketRepository.Update(context, ticket); err != nil {
		return nil, fmt.Errorf("tickets_service_update_ticket_failed: %w", err)
	}

	return ticket, nil
}

// DeleteTicket soft-deletes a ticket.
func (service *Service) DeleteTicket(context context.Context, id string) error {
	if _, err := service.ticketRepository.FindByID(context, id); err != nil {
		return err
	}
	return service.ticketRepository.SoftDelete(context, id)
}
