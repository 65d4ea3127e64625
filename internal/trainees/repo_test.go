package trainees

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/internal/users"
	"github.com/vbkouture/cencad-backend/pkg/db"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
	"github.com/vbkouture/cencad-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:trainees_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.CorporateTrainee{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, email string) *models.User {
	t.Helper()
	user, err := users.NewRepository(conn).Create(context.Background(), users.CreateUserDTO{
		Email:        email,
		Name:         "Trainee " + email,
		PasswordHash: "x",
		Role:         enums.UserRoleStudent,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestCreateAndFindScopedToAccount(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	accountID := uuid.New()
	user := seedUser(t, conn, "a@corp.test")

	trainee, err := repo.Create(ctx, CreateTraineeDTO{CorporateAccountID: accountID, UserID: user.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !trainee.IsActive {
		t.Fatal("expected trainee to start active")
	}

	found, err := repo.FindForAccount(ctx, accountID, trainee.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.UserID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, found.UserID)
	}

	if _, err := repo.FindForAccount(ctx, uuid.New(), trainee.ID); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected cross-tenant lookup to miss, got %v", err)
	}

	byUser, err := repo.FindByAccountAndUser(ctx, accountID, user.ID)
	if err != nil {
		t.Fatalf("find by user: %v", err)
	}
	if byUser.ID != trainee.ID {
		t.Fatalf("expected trainee %s, got %s", trainee.ID, byUser.ID)
	}
}

func TestCreateRejectsDuplicateRosterEntry(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	accountID := uuid.New()
	user := seedUser(t, conn, "dup@corp.test")

	if _, err := repo.Create(ctx, CreateTraineeDTO{CorporateAccountID: accountID, UserID: user.ID}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := repo.Create(ctx, CreateTraineeDTO{CorporateAccountID: accountID, UserID: user.ID})
	if err == nil {
		t.Fatal("expected duplicate roster entry to fail")
	}
	if !db.IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestReactivateRestoresRemovedRosterEntry(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	accountID := uuid.New()
	user := seedUser(t, conn, "rehire@corp.test")

	trainee, err := repo.Create(ctx, CreateTraineeDTO{CorporateAccountID: accountID, UserID: user.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Deactivate(ctx, trainee.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// the pair's row survives removal, so a second insert must still collide
	if _, err := repo.Create(ctx, CreateTraineeDTO{CorporateAccountID: accountID, UserID: user.ID}); !db.IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation on duplicate pair, got %v", err)
	}

	department := "Logistics"
	restored, err := repo.Reactivate(ctx, trainee.ID, nil, &department)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if restored.ID != trainee.ID {
		t.Fatalf("expected the same roster row, got %s", restored.ID)
	}
	if !restored.IsActive {
		t.Fatal("expected the entry back on the active roster")
	}
	if restored.Department == nil || *restored.Department != department {
		t.Fatal("expected the refreshed department")
	}
	if restored.JoinedAt != nil {
		t.Fatal("expected joined_at cleared on re-onboarding")
	}
}

func TestListByAccountJoinsUserIdentity(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	accountID := uuid.New()
	for _, email := range []string{"one@corp.test", "two@corp.test", "three@corp.test"} {
		user := seedUser(t, conn, email)
		if _, err := repo.Create(ctx, CreateTraineeDTO{CorporateAccountID: accountID, UserID: user.ID}); err != nil {
			t.Fatalf("create %s: %v", email, err)
		}
	}
	other := seedUser(t, conn, "other@corp.test")
	if _, err := repo.Create(ctx, CreateTraineeDTO{CorporateAccountID: uuid.New(), UserID: other.ID}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	rows, total, err := repo.ListByAccount(ctx, accountID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Email == "" || row.Name == "" {
			t.Fatalf("expected joined identity on row %s", row.ID)
		}
	}
}

func TestCountByAccountTracksActive(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	accountID := uuid.New()
	var first *models.CorporateTrainee
	for i, email := range []string{"c1@corp.test", "c2@corp.test"} {
		user := seedUser(t, conn, email)
		trainee, err := repo.Create(ctx, CreateTraineeDTO{CorporateAccountID: accountID, UserID: user.ID})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if i == 0 {
			first = trainee
		}
	}

	if err := repo.Deactivate(ctx, first.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	total, active, err := repo.CountByAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 || active != 1 {
		t.Fatalf("expected 2 total / 1 active, got %d/%d", total, active)
	}

	reloaded, err := repo.FindForAccount(ctx, accountID, first.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.IsActive {
		t.Fatal("expected deactivated trainee")
	}
}
