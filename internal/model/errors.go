package model

import "errors"

var (
	// ErrProjectNameRequired is returned when a project creation request is missing the name.
	ErrProjectNameRequired = errors.New("project name is required")

	// ErrProjectNotFound is returned when a project is not found.
	ErrProjectNotFound = errors.New("project not found")

	// ErrNotAMember is returned when a user has no membership in a project.
	ErrNotAMember = errors.New("not a member of project")

	// ErrInvitationNotFound is returned when an invitation is not found.
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationExpired is returned when an invitation is past its expiry.
	ErrInvitationExpired = errors.New("invitation expired")

	// ErrShareLinkNotFound is returned when a share link token is unknown.
	ErrShareLinkNotFound = errors.New("share link not found")

	// ErrShareLinkExpired is returned when a share link is past its expiry.
	ErrShareLinkExpired = errors.New("share link expired")

	// ErrInvalidPermission is returned when a permission value is not recognized.
	ErrInvalidPermission = errors.New("invalid permission")

	// ErrForbidden is returned when access to a resource is forbidden.
	ErrForbidden = errors.New("forbidden")
)
