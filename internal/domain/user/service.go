package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/domain/page"
	"eventplanner/internal/platform/apperr"
	"eventplanner/internal/platform/sanitize"
	"eventplanner/internal/platform/validate"
)

const avatarDir = "avatars"

// AvatarStore keeps profile pictures.
type AvatarStore interface {
	SaveImage(ctx context.Context, dir string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

type Service struct {
	repo    Repository
	avatars AvatarStore
	logger  *slog.Logger
	cost    int
}

type Option func(*Service)

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo Repository, avatars AvatarStore, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		avatars: avatars,
		logger:  slog.Default(),
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "users")
	return s
}

// Register is public sign-up. New accounts get the user role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Name = sanitize.Text(in.Name)
	in.Email = normalizeEmail(in.Email)
	fields := validate.Struct(in)
	if err := s.checkEmail(ctx, fields, in.Email, 0); err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Roles:        []access.Role{access.RoleUser},
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, emailTaken(err)
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Principal loads the caller identified by a token subject, so deleted
// accounts and role changes take effect before the token expires.
func (s *Service) Principal(ctx context.Context, id int64) (access.Principal, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return access.Principal{}, err
	}
	return u.Principal(), nil
}

func (s *Service) Profile(ctx context.Context, p access.Principal) (*User, error) {
	if err := access.Authorize(p, access.ManageProfile); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, p.UserID)
}

func (s *Service) UpdateProfile(ctx context.Context, p access.Principal, in ProfileInput) (*User, error) {
	u, err := s.Profile(ctx, p)
	if err != nil {
		return nil, err
	}
	in.Name = sanitize.Text(in.Name)
	in.Email = normalizeEmail(in.Email)
	fields := validate.Struct(in)
	if err := s.checkEmail(ctx, fields, in.Email, u.ID); err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	u.Name = in.Name
	u.Email = in.Email
	u.Phone = optional(in.Phone)
	if err := s.repo.Update(ctx, u, ""); err != nil {
		return nil, emailTaken(err)
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, p access.Principal, in PasswordInput) error {
	u, err := s.Profile(ctx, p)
	if err != nil {
		return err
	}
	fields := validate.Struct(in)
	if in.CurrentPassword != "" &&
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)) != nil {
		fields.Add("current_password", "is incorrect")
	}
	if err := fields.Err(); err != nil {
		return err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, u.ID, hash)
}

// UpdateAvatar stores a new avatar and deletes the previous one.
func (s *Service) UpdateAvatar(ctx context.Context, p access.Principal, r io.Reader) (*User, error) {
	u, err := s.Profile(ctx, p)
	if err != nil {
		return nil, err
	}
	path, err := s.avatars.SaveImage(ctx, avatarDir, r)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetAvatar(ctx, u.ID, &path); err != nil {
		s.discardAvatar(ctx, path)
		return nil, err
	}
	if u.AvatarPath != nil {
		s.discardAvatar(ctx, *u.AvatarPath)
	}
	u.AvatarPath = &path
	return u, nil
}

func (s *Service) List(ctx context.Context, p access.Principal, pageNumber int) (page.Page[User], error) {
	if err := access.Authorize(p, access.ViewUsers); err != nil {
		return page.Page[User]{}, err
	}
	req := page.New(pageNumber, page.AdminSize)
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return page.Page[User]{}, err
	}
	return page.Of(items, req, total), nil
}

func (s *Service) Get(ctx context.Context, p access.Principal, id int64) (*User, error) {
	if err := access.Authorize(p, access.ViewUsers); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Create adds an account with exactly the chosen role.
func (s *Service) Create(ctx context.Context, p access.Principal, in AdminInput) (*User, error) {
	if err := access.Authorize(p, access.EditUsers); err != nil {
		return nil, err
	}
	role, err := s.checkAdminInput(ctx, &in, 0, true)
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        optional(in.Phone),
		PasswordHash: hash,
		Roles:        []access.Role{role},
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, emailTaken(err)
	}
	return u, nil
}

// Update edits an account. An empty password keeps the current one.
func (s *Service) Update(ctx context.Context, p access.Principal, id int64, in AdminInput) (*User, error) {
	if err := access.Authorize(p, access.EditUsers); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := s.checkAdminInput(ctx, &in, id, false)
	if err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		if hash, err = s.hash(in.Password); err != nil {
			return nil, err
		}
	}

	u.Name = in.Name
	u.Email = in.Email
	u.Phone = optional(in.Phone)
	u.Roles = []access.Role{role}
	if err := s.repo.Update(ctx, u, hash); err != nil {
		return nil, emailTaken(err)
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, p access.Principal, id int64) error {
	if err := access.Authorize(p, access.DeleteUsers); err != nil {
		return err
	}
	if id == p.UserID {
		return ErrSelfDeletion
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if u.AvatarPath != nil {
		s.discardAvatar(ctx, *u.AvatarPath)
	}
	return nil
}

func (s *Service) checkAdminInput(ctx context.Context, in *AdminInput, exceptID int64, creating bool) (access.Role, error) {
	in.Name = sanitize.Text(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	fields := validate.Struct(*in)
	if creating && in.Password == "" {
		fields.Add("password", "is required")
	}
	if err := s.checkEmail(ctx, fields, in.Email, exceptID); err != nil {
		return "", err
	}
	if err := fields.Err(); err != nil {
		return "", err
	}
	role, _ := access.ParseRole(in.Role)
	return role, nil
}

// checkEmail records a field error when email belongs to another account.
// Only storage failures are returned.
func (s *Service) checkEmail(ctx context.Context, fields apperr.FieldErrors, email string, exceptID int64) error {
	if _, bad := fields["email"]; bad {
		return nil
	}
	taken, err := s.repo.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		fields.Add("email", "has already been taken")
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.FieldErrors{"password": "must be at most 72 bytes"}
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Service) discardAvatar(ctx context.Context, path string) {
	if err := s.avatars.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to delete avatar", "path", path, "error", err)
	}
}

func emailTaken(err error) error {
	if errors.Is(err, ErrEmailTaken) {
		return apperr.FieldErrors{"email": "has already been taken"}
	}
	return err
}
