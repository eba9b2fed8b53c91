// Copyright (c) 2026 Voxdesk. All rights reserved.

package tickets

import (
	"context"

	"github.com/anujmtekyz/voxdesk/pkg/pagination"
)

// ProjectRepository abstracts persistence for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindBySlug(ctx context.Context, slug string) (*Project, error)
	List(ctx context.Context, params pagination.Params) ([]*Project, int64, error)
	Update(ctx context.Context, project *Project) error
	SoftDelete(ctx context.Context, id string) error
}

// TicketRepository abstracts persistence for tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *Ticket) error
	FindByID(ctx context.Context, id string) (*Ticket, error)
	List(ctx context.Context, filter Filter, params pagination.Params) ([]*Ticket, int64, error)
	Update(ctx context.Context, ticket *Ticket) error
	SoftDelete(ctx context.Context, id string) error
}
