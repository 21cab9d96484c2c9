package service

import (
	"context"

	"github.com/patric-chuzhbe/library/internal/db/storage"
	"github.com/patric-chuzhbe/library/internal/models"
	"github.com/patric-chuzhbe/library/internal/objectid"
	"github.com/patric-chuzhbe/library/internal/shaper"
)

func (s *Service) CreateUser(ctx context.Context, request models.CreateUserRequest) (models.User, error) {
	created, err := s.db.CreateUser(ctx, &storage.UserDocument{
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Username:  request.Username,
	})
	if err != nil {
		return models.User{}, err
	}

	return shaper.User(created), nil
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.db.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	return shaper.Users(users), nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (models.User, error) {
	usr, err := s.getUserDocument(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	return shaper.User(usr), nil
}

// UpdateUser merges the supplied fields into the user and returns the result.
func (s *Service) UpdateUser(ctx context.Context, userID string, request models.UpdateUserRequest) (models.User, error) {
	id, ok := objectid.Parse(userID)
	if !ok {
		return models.User{}, ErrUserNotFound
	}

	updated, found, err := s.db.UpdateUser(ctx, id, storage.UserPatch{
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Username:  request.Username,
	})
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, ErrUserNotFound
	}

	return shaper.User(updated), nil
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	id, ok := objectid.Parse(userID)
	if !ok {
		return ErrUserNotFound
	}

	deleted, err := s.db.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}

	return nil
}
