package model

import "time"

// Permission is the access level granted to a project member.
type Permission string

const (
	PermissionView  Permission = "view"
	PermissionEdit  Permission = "edit"
	PermissionAdmin Permission = "admin"
)

// Valid reports whether the permission is one of the known levels.
func (p Permission) Valid() bool {
	switch p {
	case PermissionView, PermissionEdit, PermissionAdmin:
		return true
	}
	return false
}

// Project represents a project that can host a collaboration session.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Member is a user's membership in a project.
type Member struct {
	ProjectID  string     `json:"projectId"`
	UserID     string     `json:"userId"`
	Permission Permission `json:"permission"`
	AddedAt    time.Time  `json:"addedAt"`
}

// InvitationStatus tracks the lifecycle of a project invitation.
type InvitationStatus string

const (
	InvitationStatusSent     InvitationStatus = "sent"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusExpired  InvitationStatus = "expired"
)

// Invitation is a pending offer to join a project, addressed by email.
type Invitation struct {
	ID         string           `json:"id"`
	ProjectID  string           `json:"project_id"`
	Email      string           `json:"email"`
	Permission Permission       `json:"permission"`
	Status     InvitationStatus `json:"status"`
	SentAt     time.Time        `json:"sent_at"`
	ExpiresAt  time.Time        `json:"expires_at"`
}

// ShareLink grants access to a project via an unguessable token.
type ShareLink struct {
	Token      string     `json:"token"`
	ProjectID  string     `json:"project_id"`
	Permission Permission `json:"permission"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// Expired reports whether the share link is past its expiry.
func (s *ShareLink) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// CreateProjectRequest represents a request to create a new project.
type CreateProjectRequest struct {
	Name    string `json:"name" binding:"required"`
	OwnerID string `json:"-"`
}

// Validate validates the create project request.
func (r *CreateProjectRequest) Validate() error {
	if r.Name == "" {
		return ErrProjectNameRequired
	}
	return nil
}
