// Copyright (c) 2026 Voxdesk. All rights reserved.

package tickets_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anujmtekyz/voxdesk/internal/platform/apperr"
	"github.com/anujmtekyz/voxdesk/internal/tickets"
	"github.com/anujmtekyz/voxdesk/pkg/pagination"
)

// # Test Fakes

type memoryProjectRepository struct {
	projects map[string]*tickets.Project
}

func newMemoryProjectRepository() *memoryProjectRepository {
	return &memoryProjectRepository{projects: map[string]*tickets.Project{}}
}

func (repo *memoryProjectRepository) Create(_ context.Context, project *tickets.Project) error {
	repo.projects[project.ID] = project
	return nil
}

func (repo *memoryProjectRepository) FindByID(_ context.Context, id string) (*tickets.Project, error) {
	if project, ok := repo.projects[id]; ok && project.DeletedAt == nil {
		return project, nil
	}
	return nil, apperr.NotFound("Project")
}

func (repo *memoryProjectRepository) FindBySlug(_ context.Context, slug string) (*tickets.Project, error) {
	for _, project := range repo.projects {
		if project.Slug == slug && project.DeletedAt == nil {
			return project, nil
		}
	}
	return nil, apperr.NotFound("Project")
}

func (repo *memoryProjectRepository) List(_ context.Context, _ pagination.Params) ([]*tickets.Project, int64, error) {
	var out []*tickets.Project
	for _, project := range repo.projects {
		if project.DeletedAt == nil {
			out = append(out, project)
		}
	}
	return out, int64(len(out)), nil
}

func (repo *memoryProjectRepository) Update(_ context.Context, project *tickets.Project) error {
	repo.projects[project.ID] = project
	return nil
}

func (repo *memoryProjectRepository) SoftDelete(_ context.Context, id string) error {
	delete(repo.projects, id)
	return nil
}

type memoryTicketRepository struct {
	tickets map[string]*tickets.Ticket
}

func newMemoryTicketRepository() *memoryTicketRepository {
	return &memoryTicketRepository{tickets: map[string]*tickets.Ticket{}}
}

func (repo *memoryTicketRepository) Create(_ context.Context, ticket *tickets.Ticket) error {
	repo.tickets[ticket.ID] = ticket
	return nil
}

func (repo *memoryTicketRepository) FindByID(_ context.Context, id string) (*tickets.Ticket, error) {
	if ticket, ok := repo.tickets[id]; ok {
		return ticket, nil
	}
	return nil, apperr.NotFound("Ticket")
}

func (repo *memoryTicketRepository) List(_ context.Context, filter tickets.Filter, _ pagination.Params) ([]*tickets.Ticket, int64, error) {
	var out []*tickets.Ticket
	for _, ticket := range repo.tickets {
		if filter.ProjectID != "" && ticket.ProjectID != filter.ProjectID {
			continue
		}
		out = append(out, ticket)
	}
	return out, int64(len(out)), nil
}

func (repo *memoryTicketRepository) Update(_ context.Context, ticket *tickets.Ticket) error {
	repo.tickets[ticket.ID] = ticket
	return nil
}

func (repo *memoryTicketRepository) SoftDelete(_ context.Context, id string) error {
	delete(repo.tickets, id)
	return nil
}

func newTestService() (*tickets.Service, *memoryProjectRepository, *memoryTicketRepository) {
	projectRepo := newMemoryProjectRepository()
	ticketRepo := newMemoryTicketRepository()
	service := tickets.NewService(projectRepo, ticketRepo, slog.Default())
	return service, projectRepo, ticketRepo
}

func seedProject(t *testing.T, service *tickets.Service, name string) *tickets.Project {
	t.Helper()
	project, err := service.CreateProject(context.Background(), tickets.CreateProjectInput{
		Name:    name,
		OwnerID: "owner-1",
	})
	require.NoError(t, err)
	return project
}

// # Projects

/*
TestCreateProject_Slug verifies slug derivation and duplicate rejection.
*/
func TestCreateProject_Slug(t *testing.T) {
	service, _, _ := newTestService()

	project := seedProject(t, service, "Customer Support Desk")
	assert.Equal(t, "customer-support-desk", project.Slug)
	assert.NotEmpty(t, project.ID)

	_, err := service.CreateProject(context.Background(), tickets.CreateProjectInput{
		Name:    "Customer Support Desk",
		OwnerID: "owner-2",
	})
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

/*
TestGetProject_IDOrSlug verifies the ID lookup with slug fallback.
*/
func TestGetProject_IDOrSlug(t *testing.T) {
	service, _, _ := newTestService()
	project := seedProject(t, service, "Voice Intake")

	byID, err := service.GetProject(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, byID.ID)

	bySlug, err := service.GetProject(context.Background(), "voice-intake")
	require.NoError(t, err)
	assert.Equal(t, project.ID, bySlug.ID)

	_, err = service.GetProject(context.Background(), "no-such-project")
	require.Error(t, err)
}

// # Tickets

/*
TestCreateTicket_Defaults verifies status and priority defaults and the
unknown-project rejection.
*/
func TestCreateTicket_Defaults(t *testing.T) {
	service, _, _ := newTestService()
	project := seedProject(t, service, "Helpdesk")

	ticket, err := service.CreateTicket(context.Background(), tickets.CreateTicketInput{
		ProjectID:  project.ID,
		Title:      "Printer on fire",
		Transcript: "uh the printer in room four is literally on fire",
		ReporterID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusOpen, ticket.Status)
	assert.Equal(t, tickets.PriorityMedium, ticket.Priority)
	assert.Nil(t, ticket.AssigneeID)

	_, err = service.CreateTicket(context.Background(), tickets.CreateTicketInput{
		ProjectID:  "missing-project",
		Title:      "Orphan",
		ReporterID: "user-1",
	})
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

/*
TestCreateTicket_InvalidPriority rejects priorities outside the enum.
*/
func TestCreateTicket_InvalidPriority(t *testing.T) {
	service, _, _ := newTestService()
	project := seedProject(t, service, "Helpdesk")

	_, err := service.CreateTicket(context.Background(), tickets.CreateTicketInput{
		ProjectID:  project.ID,
		Title:      "Bad priority",
		Priority:   tickets.Priority("urgent-ish"),
		ReporterID: "user-1",
	})
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "BAD_REQUEST", appErr.Code)
}

/*
TestUpdateTicket_PartialUpdate verifies nil pointers leave fields untouched
and an empty assignee clears the assignment.
*/
func TestUpdateTicket_PartialUpdate(t *testing.T) {
	service, _, _ := newTestService()
	project := seedProject(t, service, "Helpdesk")

	assignee := "agent-1"
	created, err := service.CreateTicket(context.Background(), tickets.CreateTicketInput{
		ProjectID:  project.ID,
		Title:      "VPN down",
		Priority:   tickets.PriorityHigh,
		ReporterID: "user-1",
		AssigneeID: &assignee,
	})
	require.NoError(t, err)

	newTitle := "VPN down for remote staff"
	updated, err := service.UpdateTicket(context.Background(), created.ID, tickets.UpdateTicketInput{
		Title: &newTitle,
	})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, tickets.PriorityHigh, updated.Priority)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, "agent-1", *updated.AssigneeID)

	// An explicit empty assignee clears the assignment.
	empty := ""
	updated, err = service.UpdateTicket(context.Background(), created.ID, tickets.UpdateTicketInput{
		AssigneeID: &empty,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.AssigneeID)
}

/*
TestUpdateTicket_ClosedImmutable verifies that closed tickets only accept a
reopening status change.
*/
func TestUpdateTicket_ClosedImmutable(t *testing.T) {
	service, _, _ := newTestService()
	project := seedProject(t, service, "Helpdesk")

	created, err := service.CreateTicket(context.Background(), tickets.CreateTicketInput{
		ProjectID:  project.ID,
		Title:      "Flaky wifi",
		ReporterID: "user-1",
	})
	require.NoError(t, err)

	closed := tickets.StatusClosed
	_, err = service.UpdateTicket(context.Background(), created.ID, tickets.UpdateTicketInput{
		Status: &closed,
	})
	require.NoError(t, err)

	newTitle := "Flaky wifi everywhere"
	_, err = service.UpdateTicket(context.Background(), created.ID, tickets.UpdateTicketInput{
		Title: &newTitle,
	})
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)

	// Reopening is allowed, and may carry other edits in the same request.
	open := tickets.StatusOpen
	reopened, err := service.UpdateTicket(context.Background(), created.ID, tickets.UpdateTicketInput{
		Status: &open,
		Title:  &newTitle,
	})
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusOpen, reopened.Status)
	assert.Equal(t, newTitle, reopened.Title)
}

/*
TestUpdateTicket_InvalidStatus rejects statuses outside the enum.
*/
func TestUpdateTicket_InvalidStatus(t *testing.T) {
	service, _, _ := newTestService()
	project := seedProject(t, service, "Helpdesk")

	created, err := service.CreateTicket(context.Background(), tickets.CreateTicketInput{
		ProjectID:  project.ID,
		Title:      "Keyboard gremlins",
		ReporterID: "user-1",
	})
	require.NoError(t, err)

	bogus := tickets.Status("paused")
	_, err = service.UpdateTicket(context.Background(), created.ID, tickets.UpdateTicketInput{
		Status: &bogus,
	})
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "BAD_REQUEST", appErr.Code)
}

/*
TestDeleteTicket verifies delete requires an existing ticket.
*/
func TestDeleteTicket(t *testing.T) {
	service, _, _ := newTestService()
	project := seedProject(t, service, "Helpdesk")

	created, err := service.CreateTicket(context.Background(), tickets.CreateTicketInput{
		ProjectID:  project.ID,
		Title:      "Stale session",
		ReporterID: "user-1",
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteTicket(context.Background(), created.ID))

	_, err = service.GetTicket(context.Background(), created.ID)
	require.Error(t, err)

	err = service.DeleteTicket(context.Background(), "missing")
	require.Error(t, err)
}
