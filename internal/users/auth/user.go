// Copyright (c) 2026 Voxdesk. All rights reserved.

/*
Package auth implements the user identity and session lifecycle layer.

It defines the core domain entities (User) and the logic for authentication,
token rotation, and account recovery.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"

	"github.com/anujmtekyz/voxdesk/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Voxdesk platform.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string       `json:"displayName"`
	Role         sec.UserRole `json:"role"`
	IsActive     bool         `json:"isActive"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// TokenPair is the transport-ready result of minting a session.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "displayName"
	FieldLogin           = "login"
	FieldToken           = "token"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldAccessToken     = "accessToken"
	FieldRefreshToken    = "refreshToken"
	FieldUser            = "user"
	FieldMessage         = "message"
)
