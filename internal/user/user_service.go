package user

import (
	"context"
	"errors"
	"log"

	"villagesq/internal/common"
	"villagesq/internal/dbmysql"
)

type UserService interface {
	RegisterUser(ctx context.Context, handle, name, email, password string) (*dbmysql.User, string, error)
	LoginUser(ctx context.Context, handle, password string) (*dbmysql.User, string, error)
	GetProfile(ctx context.Context, userID uint64) (*dbmysql.User, error)
	UpdateProfile(ctx context.Context, userID uint64, name, bio, email string) error
	ListMembers(ctx context.Context) ([]dbmysql.User, error)

	// Avatar satisfies the chat handler's AvatarResolver.
	Avatar(ctx context.Context, userID uint64) *string
}

type userService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) RegisterUser(ctx context.Context, handle, name, email, password string) (*dbmysql.User, string, error) {
	if err := common.ValidateHandle(handle); err != nil {
		return nil, "", err
	}
	if err := common.ValidatePassword(password); err != nil {
		return nil, "", err
	}
	if err := common.ValidateEmail(email); err != nil {
		return nil, "", err
	}

	if existing, _ := s.repo.ByHandle(ctx, handle); existing != nil {
		return nil, "", common.NewValidationError("handle", "already taken")
	}

	hash, err := common.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	if name == "" {
		name = handle
	}

	u := &dbmysql.User{
		Handle:       handle,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         "MEMBER",
		Status:       "active",
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := common.GenerateToken(u.UserID, u.Handle, u.Name, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *userService) LoginUser(ctx context.Context, handle, password string) (*dbmysql.User, string, error) {
	u, err := s.repo.ByHandle(ctx, handle)
	if err != nil {
		return nil, "", common.ErrUnauthorized
	}

	if err := common.CheckPassword(password, u.PasswordHash); err != nil {
		return nil, "", common.ErrUnauthorized
	}

	token, err := common.GenerateToken(u.UserID, u.Handle, u.Name, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uint64) (*dbmysql.User, error) {
	return s.repo.ByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint64, name, bio, email string) error {
	if err := common.ValidateEmail(email); err != nil {
		return err
	}

	u, err := s.repo.ByID(ctx, userID)
	if err != nil {
		return err
	}

	if name != "" {
		u.Name = name
	}
	u.Bio = bio
	if email != "" {
		u.Email = email
	}

	return s.repo.Update(ctx, u)
}

func (s *userService) ListMembers(ctx context.Context) ([]dbmysql.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) Avatar(ctx context.Context, userID uint64) *string {
	u, err := s.repo.ByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.Printf("Avatar lookup failed for user %d: %v", userID, err)
		}
		return nil
	}
	return u.ProfilePic
}
