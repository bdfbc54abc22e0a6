package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fside/backend/internal/db"
	"github.com/fside/backend/internal/model"
)

func setupTestRepo(t *testing.T) (*ProjectRepository, *sql.DB) {
	t.Helper()

	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })

	return NewProjectRepository(testDB), testDB
}

func newTestProject(ownerID string) *model.Project {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Project{
		ID:        uuid.New().String(),
		Name:      "Test Project",
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAddsOwnerMembership(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	project := newTestProject("owner-1")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	got, err := repo.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("failed to get project: %v", err)
	}
	if got.Name != project.Name || got.OwnerID != "owner-1" {
		t.Errorf("unexpected project: %+v", got)
	}

	member, err := repo.GetMember(ctx, project.ID, "owner-1")
	if err != nil {
		t.Fatalf("expected owner membership: %v", err)
	}
	if member.Permission != model.PermissionAdmin {
		t.Errorf("expected owner to be admin, got %q", member.Permission)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, model.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestListReturnsOnlyMemberships(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	mine := newTestProject("user-1")
	theirs := newTestProject("user-2")
	if err := repo.Create(ctx, mine); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	if err := repo.Create(ctx, theirs); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	projects, err := repo.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to list projects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != mine.ID {
		t.Errorf("expected only user-1's project, got %d projects", len(projects))
	}

	// Joining the other project makes it visible.
	err = repo.AddMember(ctx, &model.Member{
		ProjectID:  theirs.ID,
		UserID:     "user-1",
		Permission: model.PermissionEdit,
		AddedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	projects, err = repo.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to list projects: %v", err)
	}
	if len(projects) != 2 {
		t.Errorf("expected 2 projects after joining, got %d", len(projects))
	}
}

func TestDeleteCascadesMemberships(t *testing.T) {
	repo, testDB := setupTestRepo(t)
	ctx := context.Background()

	project := newTestProject("owner-1")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	if err := repo.Delete(ctx, project.ID); err != nil {
		t.Fatalf("failed to delete project: %v", err)
	}

	if err := repo.Delete(ctx, project.ID); !errors.Is(err, model.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound on double delete, got %v", err)
	}

	var count int
	err := testDB.QueryRow(`SELECT COUNT(*) FROM project_members WHERE project_id = ?`, project.ID).Scan(&count)
	if err != nil {
		t.Fatalf("failed to count memberships: %v", err)
	}
	if count != 0 {
		t.Errorf("expected memberships to cascade on delete, %d left", count)
	}
}

func TestAddMemberUpsertsPermission(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	project := newTestProject("owner-1")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	member := &model.Member{
		ProjectID:  project.ID,
		UserID:     "user-2",
		Permission: model.PermissionView,
		AddedAt:    time.Now(),
	}
	if err := repo.AddMember(ctx, member); err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	member.Permission = model.PermissionEdit
	if err := repo.AddMember(ctx, member); err != nil {
		t.Fatalf("failed to upsert member: %v", err)
	}

	got, err := repo.GetMember(ctx, project.ID, "user-2")
	if err != nil {
		t.Fatalf("failed to get member: %v", err)
	}
	if got.Permission != model.PermissionEdit {
		t.Errorf("expected upserted permission edit, got %q", got.Permission)
	}

	members, err := repo.ListMembers(ctx, project.ID)
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected owner plus one member, got %d", len(members))
	}
}

func TestRemoveMember(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	project := newTestProject("owner-1")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	if err := repo.RemoveMember(ctx, project.ID, "owner-1"); err != nil {
		t.Fatalf("failed to remove member: %v", err)
	}
	if _, err := repo.GetMember(ctx, project.ID, "owner-1"); !errors.Is(err, model.ErrNotAMember) {
		t.Errorf("expected ErrNotAMember after removal, got %v", err)
	}

	// Removing again is a no-op.
	if err := repo.RemoveMember(ctx, project.ID, "owner-1"); err != nil {
		t.Errorf("unexpected error removing absent member: %v", err)
	}
}

func TestInvitationLifecycle(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	project := newTestProject("owner-1")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	inv := &model.Invitation{
		ID:         uuid.New().String(),
		ProjectID:  project.ID,
		Email:      "guest@example.com",
		Permission: model.PermissionEdit,
		Status:     model.InvitationStatusSent,
		SentAt:     time.Now().UTC(),
		ExpiresAt:  time.Now().UTC().Add(7 * 24 * time.Hour),
	}
	if err := repo.CreateInvitation(ctx, inv); err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}

	got, err := repo.GetInvitation(ctx, inv.ID)
	if err != nil {
		t.Fatalf("failed to get invitation: %v", err)
	}
	if got.Email != inv.Email || got.Status != model.InvitationStatusSent {
		t.Errorf("unexpected invitation: %+v", got)
	}

	if err := repo.UpdateInvitationStatus(ctx, inv.ID, model.InvitationStatusAccepted); err != nil {
		t.Fatalf("failed to update invitation status: %v", err)
	}
	got, err = repo.GetInvitation(ctx, inv.ID)
	if err != nil {
		t.Fatalf("failed to get invitation: %v", err)
	}
	if got.Status != model.InvitationStatusAccepted {
		t.Errorf("expected accepted status, got %q", got.Status)
	}

	if err := repo.UpdateInvitationStatus(ctx, "missing", model.InvitationStatusExpired); !errors.Is(err, model.ErrInvitationNotFound) {
		t.Errorf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestShareLinks(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	project := newTestProject("owner-1")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	now := time.Now().UTC()
	live := &model.ShareLink{
		Token:      uuid.New().String(),
		ProjectID:  project.ID,
		Permission: model.PermissionView,
		CreatedAt:  now,
		ExpiresAt:  now.Add(24 * time.Hour),
	}
	stale := &model.ShareLink{
		Token:      uuid.New().String(),
		ProjectID:  project.ID,
		Permission: model.PermissionView,
		CreatedAt:  now.Add(-48 * time.Hour),
		ExpiresAt:  now.Add(-24 * time.Hour),
	}
	for _, link := range []*model.ShareLink{live, stale} {
		if err := repo.CreateShareLink(ctx, link); err != nil {
			t.Fatalf("failed to create share link: %v", err)
		}
	}

	got, err := repo.GetShareLink(ctx, live.Token)
	if err != nil {
		t.Fatalf("failed to get share link: %v", err)
	}
	if got.ProjectID != project.ID {
		t.Errorf("unexpected share link project: %q", got.ProjectID)
	}

	deleted, err := repo.DeleteExpiredShareLinks(ctx, now)
	if err != nil {
		t.Fatalf("failed to delete expired share links: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 expired link deleted, got %d", deleted)
	}
	if _, err := repo.GetShareLink(ctx, stale.Token); !errors.Is(err, model.ErrShareLinkNotFound) {
		t.Errorf("expected ErrShareLinkNotFound for deleted link, got %v", err)
	}
	if _, err := repo.GetShareLink(ctx, live.Token); err != nil {
		t.Errorf("live link should survive the purge: %v", err)
	}
}

func TestExists(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	ok, err := repo.Exists(ctx, "missing")
	if err != nil {
		t.Fatalf("failed to check existence: %v", err)
	}
	if ok {
		t.Error("expected missing project not to exist")
	}

	project := newTestProject("owner-1")
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	ok, err = repo.Exists(ctx, project.ID)
	if err != nil {
		t.Fatalf("failed to check existence: %v", err)
	}
	if !ok {
		t.Error("expected created project to exist")
	}
}
