// Package mockstorage provides a testify-based mock implementation
// of the library storage contract.
// It is used for unit testing the service and the HTTP handlers by simulating
// storage behavior and failures that the in-process stores cannot produce.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/patric-chuzhbe/library/internal/db/storage"
)

// StorageMock is a testify mock that implements storage.Storage.
type StorageMock struct {
	mock.Mock
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *StorageMock) CreateUser(ctx context.Context, usr *storage.UserDocument) (*storage.UserDocument, error) {
	args := m.Called(ctx, usr)
	created, _ := args.Get(0).(*storage.UserDocument)
	return created, args.Error(1)
}

func (m *StorageMock) GetUsers(ctx context.Context) ([]storage.UserDocument, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]storage.UserDocument)
	return users, args.Error(1)
}

// GetUserByID mocks fetching a user by its identifier.
func (m *StorageMock) GetUserByID(ctx context.Context, id primitive.ObjectID) (*storage.UserDocument, bool, error) {
	args := m.Called(ctx, id)
	usr, _ := args.Get(0).(*storage.UserDocument)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) UpdateUser(
	ctx context.Context,
	id primitive.ObjectID,
	patch storage.UserPatch,
) (*storage.UserDocument, bool, error) {
	args := m.Called(ctx, id, patch)
	usr, _ := args.Get(0).(*storage.UserDocument)
	return usr, args.Bool(1), args.Error(2)
}

// AddUserBook mocks attaching a book reference to the user.
func (m *StorageMock) AddUserBook(
	ctx context.Context,
	id, bookID primitive.ObjectID,
) (*storage.UserDocument, bool, error) {
	args := m.Called(ctx, id, bookID)
	usr, _ := args.Get(0).(*storage.UserDocument)
	return usr, args.Bool(1), args.Error(2)
}

// RemoveUserBook mocks detaching a book reference from the user.
func (m *StorageMock) RemoveUserBook(ctx context.Context, id, bookID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, id, bookID)
	return args.Bool(0), args.Error(1)
}

func (m *StorageMock) DeleteUser(ctx context.Context, id primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *StorageMock) CreateBook(ctx context.Context, book *storage.BookDocument) (*storage.BookDocument, error) {
	args := m.Called(ctx, book)
	created, _ := args.Get(0).(*storage.BookDocument)
	return created, args.Error(1)
}

func (m *StorageMock) GetBooks(ctx context.Context) ([]storage.BookDocument, error) {
	args := m.Called(ctx)
	books, _ := args.Get(0).([]storage.BookDocument)
	return books, args.Error(1)
}

// GetBookByID mocks fetching a book by its identifier.
func (m *StorageMock) GetBookByID(ctx context.Context, id primitive.ObjectID) (*storage.BookDocument, bool, error) {
	args := m.Called(ctx, id)
	book, _ := args.Get(0).(*storage.BookDocument)
	return book, args.Bool(1), args.Error(2)
}

func (m *StorageMock) GetBooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]storage.BookDocument, error) {
	args := m.Called(ctx, ids)
	books, _ := args.Get(0).([]storage.BookDocument)
	return books, args.Error(1)
}

func (m *StorageMock) UpdateBook(
	ctx context.Context,
	id primitive.ObjectID,
	patch storage.BookPatch,
) (*storage.BookDocument, bool, error) {
	args := m.Called(ctx, id, patch)
	book, _ := args.Get(0).(*storage.BookDocument)
	return book, args.Bool(1), args.Error(2)
}

func (m *StorageMock) DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
