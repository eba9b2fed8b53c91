// Copyright (c) 2026 Voxdesk. All rights reserved.

/*
Package tickets defines the ticket-management domain for Voxdesk.

It manages projects and the tickets filed against them, including tickets
captured through the voice intake flow (which carry the raw transcript
alongside the structured fields).

Core Responsibility:

  - Projects: Named containers with URL-safe slugs.
  - Tickets: Lifecycle states (Open, In Progress, Resolved, Closed),
    priorities, and reporter/assignee tracking.
  - Voice intake: Preserves the dictated transcript for audit and replay.
*/
package tickets

import "time"

// # Domain Enums

// Status represents the lifecycle state of a ticket.
type Status string

const (
	// StatusOpen indicates the ticket awaits triage.
	StatusOpen Status = "open"

	// StatusInProgress indicates the ticket is actively being worked.
	StatusInProgress Status = "in_progress"

	// StatusResolved indicates a fix is awaiting reporter confirmation.
	StatusResolved Status = "resolved"

	// StatusClosed indicates the ticket is finished and immutable.
	StatusClosed Status = "closed"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Priority classifies the urgency of a ticket.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid reports whether p is a recognised [Priority] value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// # Core Entities

// Project is a named container for tickets.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"` // URL-safe identifier
	Description string     `json:"description,omitempty"`
	OwnerID     string     `json:"ownerId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"` // nil = active; non-nil = soft-deleted
}

// Ticket represents a single work item inside a project.
type Ticket struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"projectId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Transcript  string   `json:"transcript,omitempty"` // Raw voice-intake transcript
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	ReporterID  string   `json:"reporterId"`
	AssigneeID  *string  `json:"assigneeId,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// # Search & Filtering

// Filter holds the parameters for a filtered ticket list query.
type Filter struct {
	ProjectID  string
	Status     []Status
	Priority   []Priority
	AssigneeID string
	ReporterID string
	Query      string // Matches against title and transcript
}

// # Field Identifiers

// Field names for validation and wire payloads.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldSlug        = "slug"
	FieldDescription = "description"
	FieldTitle       = "title"
	FieldTranscript  = "transcript"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldAssigneeID  = "assigneeId"
	FieldProjectID   = "projectId"
)
