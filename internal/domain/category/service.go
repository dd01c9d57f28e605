package category

import (
	"context"
	"errors"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/platform/apperr"
	"eventplanner/internal/platform/sanitize"
	"eventplanner/internal/platform/validate"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List is the public category list used by the event filters.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Category{}
	}
	return items, nil
}

func (s *Service) ListAdmin(ctx context.Context, p access.Principal) ([]Category, error) {
	if err := access.Authorize(p, access.ViewCategories); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

func (s *Service) Create(ctx context.Context, p access.Principal, in Input) (*Category, error) {
	if err := access.Authorize(p, access.EditCategories); err != nil {
		return nil, err
	}
	name, err := s.checkName(ctx, in, 0)
	if err != nil {
		return nil, err
	}

	c := &Category{Name: name}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, nameTaken(err)
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, p access.Principal, id int64, in Input) (*Category, error) {
	if err := access.Authorize(p, access.EditCategories); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err := s.checkName(ctx, in, id)
	if err != nil {
		return nil, err
	}

	c.Name = name
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, nameTaken(err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, p access.Principal, id int64) error {
	if err := access.Authorize(p, access.DeleteCategories); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkName(ctx context.Context, in Input, exceptID int64) (string, error) {
	in.Name = sanitize.Text(in.Name)
	fields := validate.Struct(in)
	if len(fields) == 0 {
		taken, err := s.repo.NameTaken(ctx, in.Name, exceptID)
		if err != nil {
			return "", err
		}
		if taken {
			fields.Add("name", "has already been taken")
		}
	}
	return in.Name, fields.Err()
}

// nameTaken turns a unique-index race into the same field error the
// pre-check reports.
func nameTaken(err error) error {
	if errors.Is(err, ErrNameTaken) {
		return apperr.FieldErrors{"name": "has already been taken"}
	}
	return err
}
