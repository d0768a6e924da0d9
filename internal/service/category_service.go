package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"time-ledger/internal/model"
	"time-ledger/internal/repository"
)

// ErrDuplicateCategory rejects a custom category whose name collides
// (case-insensitively) with any category the user can already see.
var ErrDuplicateCategory = errors.New("category already exists")

// ErrBuiltinCategory rejects deletion of a built-in category.
var ErrBuiltinCategory = errors.New("built-in categories cannot be deleted")

// ErrCategoryNotFound is returned when an id resolves to nothing in the
// user's catalogue.
var ErrCategoryNotFound = errors.New("category not found")

// CategoryService merges the built-in catalogue with a user's custom
// categories and owns their lifecycle.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Catalogue returns every category visible to the user: built-ins
// first, then customs in creation order.
func (s *CategoryService) Catalogue(ctx context.Context, user *model.User) ([]model.Category, error) {
	custom, err := s.repo.ListCustom(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	catalogue := make([]model.Category, 0, len(model.BuiltinCategories)+len(custom))
	catalogue = append(catalogue, model.BuiltinCategories...)
	catalogue = append(catalogue, custom...)
	return catalogue, nil
}

// GetByID resolves an id against the user's catalogue.
func (s *CategoryService) GetByID(ctx context.Context, user *model.User, id string) (*model.Category, error) {
	catalogue, err := s.Catalogue(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range catalogue {
		if catalogue[i].ID == id {
			return &catalogue[i], nil
		}
	}
	return nil, ErrCategoryNotFound
}

// FindByName resolves a display name case-insensitively.
func (s *CategoryService) FindByName(ctx context.Context, user *model.User, name string) (*model.Category, error) {
	catalogue, err := s.Catalogue(ctx, user)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	for i := range catalogue {
		if strings.ToLower(catalogue[i].Name) == needle {
			return &catalogue[i], nil
		}
	}
	return nil, ErrCategoryNotFound
}

// CreateCustom adds a user category. The display color cycles through
// the palette by the number of customs the user already has.
func (s *CategoryService) CreateCustom(ctx context.Context, user *model.User, name, icon string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name must not be empty")
	}

	if _, err := s.FindByName(ctx, user, name); err == nil {
		return nil, ErrDuplicateCategory
	} else if !errors.Is(err, ErrCategoryNotFound) {
		return nil, err
	}

	count, err := s.repo.CountCustom(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	category := model.Category{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Name:     name,
		Icon:     icon,
		Color:    model.CategoryColors[int(count)%len(model.CategoryColors)],
		IsCustom: true,
	}
	if err := s.repo.Create(ctx, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCustom removes a user category. Built-ins are rejected before
// storage is consulted; deleting an already-gone custom id is a no-op.
func (s *CategoryService) DeleteCustom(ctx context.Context, user *model.User, id string) error {
	for _, builtin := range model.BuiltinCategories {
		if builtin.ID == id {
			return ErrBuiltinCategory
		}
	}
	return s.repo.Delete(ctx, user.ID, id)
}
