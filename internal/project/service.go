// Package project provides project lifecycle, membership, invitation and
// share-link management. The service doubles as the gateway's authorization
// collaborator: joining a collaboration session requires membership.
package project

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fside/backend/internal/model"
	"github.com/fside/backend/internal/repository"
)

const (
	// invitationTTL is how long an invitation remains acceptable.
	invitationTTL = 7 * 24 * time.Hour
)

// Service manages projects and their memberships.
type Service struct {
	repo *repository.ProjectRepository
}

// NewService creates a new project service.
func NewService(repo *repository.ProjectRepository) *Service {
	return &Service{repo: repo}
}

// Create creates a new project owned by the requesting user. The owner is
// added as an admin member in the same transaction.
func (s *Service) Create(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	project := &model.Project{
		ID:        uuid.New().String(),
		Name:      req.Name,
		OwnerID:   req.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to persist project: %w", err)
	}

	return project, nil
}

// Get retrieves a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves all projects the user is a member of.
func (s *Service) List(ctx context.Context, userID string) ([]*model.Project, error) {
	return s.repo.List(ctx, userID)
}

// Delete removes a project. Only the owner may delete it.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if project.OwnerID != userID {
		return model.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

// Members lists a project's memberships.
func (s *Service) Members(ctx context.Context, projectID string) ([]*model.Member, error) {
	return s.repo.ListMembers(ctx, projectID)
}

// Authorize reports whether a user may join a project's collaboration
// session. It returns model.ErrProjectNotFound for an unknown project and
// model.ErrNotAMember for a non-member.
func (s *Service) Authorize(ctx context.Context, projectID, userID string) error {
	exists, err := s.repo.Exists(ctx, projectID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrProjectNotFound
	}

	if _, err := s.repo.GetMember(ctx, projectID, userID); err != nil {
		return err
	}
	return nil
}

// Invite records an invitation to join a project. Mail delivery is handled
// elsewhere; the service only logs the intent.
func (s *Service) Invite(ctx context.Context, projectID, email string, permission model.Permission) (*model.Invitation, error) {
	if !permission.Valid() {
		return nil, model.ErrInvalidPermission
	}

	exists, err := s.repo.Exists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrProjectNotFound
	}

	now := time.Now()
	inv := &model.Invitation{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		Email:      email,
		Permission: permission,
		Status:     model.InvitationStatusSent,
		SentAt:     now,
		ExpiresAt:  now.Add(invitationTTL),
	}

	if err := s.repo.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to persist invitation: %w", err)
	}

	log.Printf("sending invitation to %s for project %s with %s permission", email, projectID, permission)

	return inv, nil
}

// AcceptInvitation adds the accepting user as a member and marks the
// invitation accepted. Expired invitations are refused and marked expired.
func (s *Service) AcceptInvitation(ctx context.Context, invitationID, userID string) (*model.Member, error) {
	inv, err := s.repo.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	if inv.Status != model.InvitationStatusSent {
		return nil, model.ErrInvitationExpired
	}
	if time.Now().After(inv.ExpiresAt) {
		if err := s.repo.UpdateInvitationStatus(ctx, invitationID, model.InvitationStatusExpired); err != nil {
			log.Printf("failed to mark invitation %s expired: %v", invitationID, err)
		}
		return nil, model.ErrInvitationExpired
	}

	member := &model.Member{
		ProjectID:  inv.ProjectID,
		UserID:     userID,
		Permission: inv.Permission,
		AddedAt:    time.Now(),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateInvitationStatus(ctx, invitationID, model.InvitationStatusAccepted); err != nil {
		return nil, err
	}

	return member, nil
}

// Share creates a share link for a project. expiresIn accepts "24h" or "7d";
// anything else defaults to 24 hours.
func (s *Service) Share(ctx context.Context, projectID string, permission model.Permission, expiresIn string) (*model.ShareLink, error) {
	if !permission.Valid() {
		return nil, model.ErrInvalidPermission
	}

	exists, err := s.repo.Exists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrProjectNotFound
	}

	ttl := 24 * time.Hour
	if expiresIn == "7d" {
		ttl = 7 * 24 * time.Hour
	}

	now := time.Now()
	link := &model.ShareLink{
		Token:      uuid.New().String(),
		ProjectID:  projectID,
		Permission: permission,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	if err := s.repo.CreateShareLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to persist share link: %w", err)
	}

	return link, nil
}

// Redeem resolves a share link token and grants the user membership at the
// link's permission level.
func (s *Service) Redeem(ctx context.Context, token, userID string) (*model.Member, error) {
	link, err := s.repo.GetShareLink(ctx, token)
	if err != nil {
		return nil, err
	}
	if link.Expired(time.Now()) {
		return nil, model.ErrShareLinkExpired
	}

	member := &model.Member{
		ProjectID:  link.ProjectID,
		UserID:     userID,
		Permission: link.Permission,
		AddedAt:    time.Now(),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	return member, nil
}

// AddMember adds a user to a project directly. The requesting user must be
// the owner or an admin member.
func (s *Service) AddMember(ctx context.Context, projectID, requesterID, userID string, permission model.Permission) (*model.Member, error) {
	if !permission.Valid() {
		return nil, model.ErrInvalidPermission
	}

	if err := s.requireAdmin(ctx, projectID, requesterID); err != nil {
		return nil, err
	}

	member := &model.Member{
		ProjectID:  projectID,
		UserID:     userID,
		Permission: permission,
		AddedAt:    time.Now(),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	return member, nil
}

// RemoveMember removes a user from a project. The requesting user must be
// the owner or an admin member; the owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, projectID, requesterID, userID string) error {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID == userID {
		return model.ErrForbidden
	}

	if err := s.requireAdmin(ctx, projectID, requesterID); err != nil {
		return err
	}

	return s.repo.RemoveMember(ctx, projectID, userID)
}

// requireAdmin verifies the user holds admin permission on the project.
func (s *Service) requireAdmin(ctx context.Context, projectID, userID string) error {
	member, err := s.repo.GetMember(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotAMember) {
			return model.ErrForbidden
		}
		return err
	}
	if member.Permission != model.PermissionAdmin {
		return model.ErrForbidden
	}
	return nil
}
