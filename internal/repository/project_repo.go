// Package repository provides data access for projects, memberships and the
// durable chat log.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fside/backend/internal/model"
)

// ProjectRepository provides data access for projects and their memberships.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project and its owner's membership in one transaction.
func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.OwnerID, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, permission, added_at) VALUES (?, ?, ?, ?)`,
		project.ID, project.OwnerID, model.PermissionAdmin, project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	query := `
		SELECT id, name, owner_id, created_at, updated_at
		FROM projects
		WHERE id = ?
	`

	project := &model.Project{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.OwnerID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// List retrieves all projects a user is a member of.
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]*model.Project, error) {
	query := `
		SELECT p.id, p.name, p.owner_id, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		project := &model.Project{}
		err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.OwnerID,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Delete removes a project. Memberships, invitations and share links cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrProjectNotFound
	}

	return nil
}

// AddMember inserts or refreshes a user's membership in a project.
func (r *ProjectRepository) AddMember(ctx context.Context, member *model.Member) error {
	query := `
		INSERT INTO project_members (project_id, user_id, permission, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (project_id, user_id) DO UPDATE SET permission = excluded.permission
	`

	_, err := r.db.ExecContext(ctx, query,
		member.ProjectID, member.UserID, member.Permission, member.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// RemoveMember deletes a user's membership. Removing an absent membership is
// a no-op.
func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// GetMember retrieves a user's membership in a project.
func (r *ProjectRepository) GetMember(ctx context.Context, projectID, userID string) (*model.Member, error) {
	query := `
		SELECT project_id, user_id, permission, added_at
		FROM project_members
		WHERE project_id = ? AND user_id = ?
	`

	member := &model.Member{}
	err := r.db.QueryRowContext(ctx, query, projectID, userID).Scan(
		&member.ProjectID,
		&member.UserID,
		&member.Permission,
		&member.AddedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotAMember
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// ListMembers retrieves all memberships of a project.
func (r *ProjectRepository) ListMembers(ctx context.Context, projectID string) ([]*model.Member, error) {
	query := `
		SELECT project_id, user_id, permission, added_at
		FROM project_members
		WHERE project_id = ?
		ORDER BY added_at
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*model.Member
	for rows.Next() {
		member := &model.Member{}
		err := rows.Scan(
			&member.ProjectID,
			&member.UserID,
			&member.Permission,
			&member.AddedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// CreateInvitation inserts a new invitation.
func (r *ProjectRepository) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	query := `
		INSERT INTO invitations (id, project_id, email, permission, status, sent_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.ProjectID, inv.Email, inv.Permission, inv.Status, inv.SentAt, inv.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

// GetInvitation retrieves an invitation by ID.
func (r *ProjectRepository) GetInvitation(ctx context.Context, id string) (*model.Invitation, error) {
	query := `
		SELECT id, project_id, email, permission, status, sent_at, expires_at
		FROM invitations
		WHERE id = ?
	`

	inv := &model.Invitation{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID,
		&inv.ProjectID,
		&inv.Email,
		&inv.Permission,
		&inv.Status,
		&inv.SentAt,
		&inv.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// UpdateInvitationStatus updates the status of an invitation.
func (r *ProjectRepository) UpdateInvitationStatus(ctx context.Context, id string, status model.InvitationStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrInvitationNotFound
	}

	return nil
}

// CreateShareLink inserts a new share link.
func (r *ProjectRepository) CreateShareLink(ctx context.Context, link *model.ShareLink) error {
	query := `
		INSERT INTO share_links (token, project_id, permission, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		link.Token, link.ProjectID, link.Permission, link.CreatedAt, link.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create share link: %w", err)
	}

	return nil
}

// GetShareLink retrieves a share link by token.
func (r *ProjectRepository) GetShareLink(ctx context.Context, token string) (*model.ShareLink, error) {
	query := `
		SELECT token, project_id, permission, created_at, expires_at
		FROM share_links
		WHERE token = ?
	`

	link := &model.ShareLink{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&link.Token,
		&link.ProjectID,
		&link.Permission,
		&link.CreatedAt,
		&link.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrShareLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}

	return link, nil
}

// DeleteExpiredShareLinks removes share links past their expiry.
func (r *ProjectRepository) DeleteExpiredShareLinks(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM share_links WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired share links: %w", err)
	}

	return result.RowsAffected()
}

// Exists checks if a project exists.
func (r *ProjectRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ? LIMIT 1`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check project existence: %w", err)
	}

	return true, nil
}
