// Copyright (c) 2026 Voxdesk. All rights reserved.

package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anujmtekyz/voxdesk/internal/platform/apperr"
	"github.com/anujmtekyz/voxdesk/pkg/pagination"
)

// # Project Repository

// PostgresProjectRepository implements ProjectRepository using pgx.
type PostgresProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new PostgreSQL implementation of ProjectRepository.
func NewProjectRepository(pool *pgxpool.Pool) *PostgresProjectRepository {
	return &PostgresProjectRepository{pool: pool}
}

func (repository *PostgresProjectRepository) Create(context context.Context, project *Project) error {
	const query = `
		INSERT INTO tickets.project (id, name, slug, description, ownerid, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		project.ID,
		project.Name,
		project.Slug,
		project.Description,
		project.OwnerID,
		project.CreatedAt,
		project.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_project_repo_create_failed: %w", err)
	}

	return nil
}

func (repository *PostgresProjectRepository) FindByID(context context.Context, id string) (*Project, error) {
	const query = `
		SELECT id, name, slug, description, ownerid, createdat, updatedat
		FROM tickets.project
		WHERE id = $1 AND deletedat IS NULL`

	return repository.scanOne(context, query, id)
}

func (repository *PostgresProjectRepository) FindBySlug(context context.Context, slug string) (*Project, error) {
	const query = `
		SELECT id, name, slug, description, ownerid, createdat, updatedat
		FROM tickets.project
		WHERE slug = $1 AND deletedat IS NULL`

	return repository.scanOne(context, query, slug)
}

func (repository *PostgresProjectRepository) scanOne(context context.Context, query string, arg any) (*Project, error) {
	project := &Project{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&project.ID,
		&project.Name,
		&project.Slug,
		&project.Description,
		&project.OwnerID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, fmt.Errorf("postgres_project_repo_find_failed: %w", err)
	}

	return project, nil
}

func (repository *PostgresProjectRepository) List(context context.Context, params pagination.Params) ([]*Project, int64, error) {
	const countQuery = "SELECT COUNT(*) FROM tickets.project WHERE deletedat IS NULL"

	var total int64
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_project_repo_count_failed: %w", err)
	}

	const query = `
		SELECT id, name, slug, description, ownerid, createdat, updatedat
		FROM tickets.project
		WHERE deletedat IS NULL
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_project_repo_list_failed: %w", err)
	}
	defer rows.Close()

	projects := make([]*Project, 0)
	for rows.Next() {
		project := &Project{}
		if err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Slug,
			&project.Description,
			&project.OwnerID,
			&project.CreatedAt,
			&project.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_project_repo_scan_failed: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, total, rows.Err()
}

func (repository *PostgresProjectRepository) Update(context context.Context, project *Project) error {
	const query = `
		UPDATE tickets.project
		SET name = $2, slug = $3, description = $4, updatedat = $5
		WHERE id = $1 AND deletedat IS NULL`

	project.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		project.ID,
		project.Name,
		project.Slug,
		project.Description,
		project.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_project_repo_update_failed: %w", err)
	}

	return nil
}

func (repository *PostgresProjectRepository) SoftDelete(context context.Context, id string) error {
	const query = "UPDATE tickets.project SET deletedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_project_repo_soft_delete_failed: %w", err)
	}
	return nil
}

// # Ticket Repository

// PostgresTicketRepository implements TicketRepository using pgx.
type PostgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository creates a new PostgreSQL implementation of TicketRepository.
func NewTicketRepository(pool *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{pool: pool}
}

const ticketColumns = "id, projectid, title, description, transcript, status, priority, reporterid, assigneeid, createdat, updatedat"

func (repository *PostgresTicketRepository) Create(context context.Context, ticket *Ticket) error {
	const query = `
		INSERT INTO tickets.ticket (
			id, projectid, title, description, transcript, status, priority, reporterid, assigneeid, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		ticket.ID,
		ticket.ProjectID,
		ticket.Title,
		ticket.Description,
		ticket.Transcript,
		ticket.Status,
		ticket.Priority,
		ticket.ReporterID,
		ticket.AssigneeID,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_ticket_repo_create_failed: %w", err)
	}

	return nil
}

func (repository *PostgresTicketRepository) FindByID(context context.Context, id string) (*Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets.ticket WHERE id = $1 AND deletedat IS NULL`, ticketColumns)

	ticket := &Ticket{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&ticket.ID,
		&ticket.ProjectID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Transcript,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ReporterID,
		&ticket.AssigneeID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Ticket not found")
		}
		return nil, fmt.Errorf("postgres_ticket_repo_find_failed: %w", err)
	}

	return ticket, nil
}

/*
List retrieves tickets matching the filter, newest first.

Description: Builds the WHERE clause dynamically from the filter. The text
query matches title and transcript so voice-captured tickets are searchable
by what was actually said.

Parameters:
  - context: context.Context
  - filter: Filter
  - params: pagination.Params

Returns:
  - []*Ticket: Page of matching tickets
  - int64: Total match count
  - error: Query failures
*/
func (repository *PostgresTicketRepository) List(context context.Context, filter Filter, params pagination.Params) ([]*Ticket, int64, error) {
	conditions := []string{"deletedat IS NULL"}
	args := []any{}
	index := 1

	appendCondition := func(condition string, value any) {
		conditions = append(conditions, fmt.Sprintf(condition, index))
		args = append(args, value)
		index++
	}

	if filter.ProjectID != "" {
		appendCondition("projectid = $%d", filter.ProjectID)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			statuses[i] = string(status)
		}
		appendCondition("status = ANY($%d)", statuses)
	}
	if len(filter.Priority) > 0 {
		priorities := make([]string, len(filter.Priority))
		for i, priority := range filter.Priority {
			priorities[i] = string(priority)
		}
		appendCondition("priority = ANY($%d)", priorities)
	}
	if filter.AssigneeID != "" {
		appendCondition("assigneeid = $%d", filter.AssigneeID)
	}
	if filter.ReporterID != "" {
		appendCondition("reporterid = $%d", filter.ReporterID)
	}
	if filter.Query != "" {
		appendCondition("(title ILIKE '%%' || $%d || '%%' OR transcript ILIKE '%%' || $%[1]d || '%%')", filter.Query)
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tickets.ticket WHERE %s", where)
	var total int64
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_ticket_repo_count_failed: %w", err)
	}

	listQuery := fmt.Sprintf(
		"SELECT %s FROM tickets.ticket WHERE %s ORDER BY createdat DESC LIMIT $%d OFFSET $%d",
		ticketColumns, where, index, index+1,
	)
	args = append(args, params.Limit, params.Offset())

	rows, err := repository.pool.Query(context, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_ticket_repo_list_failed: %w", err)
	}
	defer rows.Close()

	result := make([]*Ticket, 0)
	for rows.Next() {
		ticket := &Ticket{}
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ProjectID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Transcript,
			&ticket.Status,
			&ticket.Priority,
			&ticket.ReporterID,
			&ticket.AssigneeID,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_ticket_repo_scan_failed: %w", err)
		}
		result = append(result, ticket)
	}

	return result, total, rows.Err()
}

func (repository *PostgresTicketRepository) Update(context context.Context, ticket *Ticket) error {
	const query = `
		UPDATE tickets.ticket
		SET title = $2, description = $3, transcript = $4, status = $5, priority = $6, assigneeid = $7, updatedat = $8
		WHERE id = $1 AND deletedat IS NULL`

	ticket.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Transcript,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeID,
		ticket.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_ticket_repo_update_failed: %w", err)
	}

	return nil
}

func (repository *PostgresTicketRepository) SoftDelete(context context.Context, id string) error {
	const query = "UPDATE tickets.ticket SET deletedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_ticket_repo_soft_delete_failed: %w", err)
	}
	return nil
}
