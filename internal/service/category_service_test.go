package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"time-ledger/internal/model"
	"time-ledger/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func newTestUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := model.User{TelegramID: 12345, FirstName: "Test"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return &user
}

func TestCatalogueStartsWithBuiltins(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	user := newTestUser(t, db)

	catalogue, err := svc.Catalogue(context.Background(), user)
	if err != nil {
		t.Fatalf("Catalogue: %v", err)
	}
	if len(catalogue) != len(model.BuiltinCategories) {
		t.Fatalf("catalogue has %d entries, want %d builtins", len(catalogue), len(model.BuiltinCategories))
	}
	if catalogue[0].ID != "work" {
		t.Errorf("first builtin = %s, want work", catalogue[0].ID)
	}
}

func TestCreateCustomRejectsDuplicateOfBuiltin(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	user := newTestUser(t, db)

	// "Work" collides with the builtin regardless of case.
	if _, err := svc.CreateCustom(context.Background(), user, "work", "Briefcase"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
	if _, err := svc.CreateCustom(context.Background(), user, "  WORK ", "Briefcase"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory for padded upper case, got %v", err)
	}
}

func TestCreateCustomRejectsDuplicateOfCustom(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	user := newTestUser(t, db)

	if _, err := svc.CreateCustom(ctx, user, "Hobby", "Palette"); err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}
	if _, err := svc.CreateCustom(ctx, user, "hobby", "Palette"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
}

func TestCreateCustomCyclesPalette(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	user := newTestUser(t, db)

	first, err := svc.CreateCustom(ctx, user, "Hobby", "Palette")
	if err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}
	second, err := svc.CreateCustom(ctx, user, "Reading", "BookOpen")
	if err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}

	if first.Color != model.CategoryColors[0] {
		t.Errorf("first color = %s, want palette[0]", first.Color)
	}
	if second.Color != model.CategoryColors[1] {
		t.Errorf("second color = %s, want palette[1]", second.Color)
	}
	if !second.IsCustom || second.ID == "" {
		t.Errorf("custom category must carry IsCustom and an id: %+v", second)
	}
}

func TestDeleteCustom(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	user := newTestUser(t, db)

	category, err := svc.CreateCustom(ctx, user, "Hobby", "Palette")
	if err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}

	if err := svc.DeleteCustom(ctx, user, category.ID); err != nil {
		t.Fatalf("DeleteCustom: %v", err)
	}
	// Deleting again is a silent no-op.
	if err := svc.DeleteCustom(ctx, user, category.ID); err != nil {
		t.Fatalf("second DeleteCustom must be a no-op, got %v", err)
	}

	if _, err := svc.GetByID(ctx, user, category.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound after delete, got %v", err)
	}
}

func TestDeleteBuiltinRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	user := newTestUser(t, db)

	if err := svc.DeleteCustom(context.Background(), user, "sleep"); !errors.Is(err, ErrBuiltinCategory) {
		t.Fatalf("expected ErrBuiltinCategory, got %v", err)
	}
}

func TestFindByNameCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	user := newTestUser(t, db)

	category, err := svc.FindByName(context.Background(), user, "eNtErTaInMeNt")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if category.ID != "entertainment" {
		t.Errorf("found %s, want entertainment", category.ID)
	}
}
