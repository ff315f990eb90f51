package userstore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/easywish/launchpad/internal/domain/models"
	"github.com/easywish/launchpad/internal/testutil"
)

func hashPtr(s string) *string { return &s }

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, &models.User{
		Email:        "  User@Example.COM  ",
		PasswordHash: hashPtr("$2a$12$fakehashfortest"),
		Role:         models.RoleUser,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID.IsZero() {
		t.Error("Create() left ID zero")
	}
	if created.Email != "user@example.com" {
		t.Errorf("Email = %q, want normalized lowercase", created.Email)
	}
	if created.EmailCI == "" {
		t.Error("Create() left EmailCI empty")
	}
	if created.Status != models.StatusActive {
		t.Errorf("Status = %q, want %q", created.Status, models.StatusActive)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() left timestamps zero")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, &models.User{
		Email: "user@example.com",
		Role:  models.RoleUser,
	}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	// Same credential in a different case collides on the email_ci index.
	_, err := store.Create(ctx, &models.User{
		Email: "USER@example.com",
		Role:  models.RoleUser,
	})
	if !errors.Is(err, models.ErrDuplicateEmail) {
		t.Errorf("Create(duplicate) error = %v, want models.ErrDuplicateEmail", err)
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, &models.User{
		Email: "user@example.com",
		Role:  "superuser",
	})
	if err == nil {
		t.Error("Create() with invalid role succeeded, want error")
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, &models.User{
		Email: "user@example.com",
		Role:  models.RoleUser,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, lookup := range []string{"user@example.com", "USER@EXAMPLE.COM", " User@Example.com "} {
		u, err := store.GetByEmail(ctx, lookup)
		if err != nil {
			t.Fatalf("GetByEmail(%q) error = %v", lookup, err)
		}
		if u == nil {
			t.Fatalf("GetByEmail(%q) = nil, want account", lookup)
		}
		if u.ID != created.ID {
			t.Errorf("GetByEmail(%q) ID = %v, want %v", lookup, u.ID, created.ID)
		}
	}

	u, err := store.GetByEmail(ctx, "missing@example.com")
	if err != nil {
		t.Fatalf("GetByEmail(missing) error = %v", err)
	}
	if u != nil {
		t.Errorf("GetByEmail(missing) = %+v, want nil", u)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.GetByID(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if u != nil {
		t.Errorf("GetByID() = %+v, want nil for missing account", u)
	}
}

func TestStore_UpdateRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, &models.User{
		Email: "user@example.com",
		Role:  models.RoleUser,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.UpdateRole(ctx, created.ID, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	u, err := store.GetByID(ctx, created.ID)
	if err != nil || u == nil {
		t.Fatalf("GetByID() = %v, %v", u, err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want %q", u.Role, models.RoleAdmin)
	}

	if err := store.UpdateRole(ctx, created.ID, "bogus"); err == nil {
		t.Error("UpdateRole(bogus) succeeded, want error")
	}
}

func TestStore_CountActiveAdmins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin, err := store.Create(ctx, &models.User{
		Email: "admin@example.com",
		Role:  models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Create(admin) error = %v", err)
	}
	if _, err := store.Create(ctx, &models.User{
		Email: "user@example.com",
		Role:  models.RoleUser,
	}); err != nil {
		t.Fatalf("Create(user) error = %v", err)
	}

	n, err := store.CountActiveAdmins(ctx)
	if err != nil {
		t.Fatalf("CountActiveAdmins() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountActiveAdmins() = %d, want 1", n)
	}

	if err := store.UpdateStatus(ctx, admin.ID, models.StatusDisabled); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	n, err = store.CountActiveAdmins(ctx)
	if err != nil {
		t.Fatalf("CountActiveAdmins() error = %v", err)
	}
	if n != 0 {
		t.Errorf("CountActiveAdmins() after disable = %d, want 0", n)
	}
}
