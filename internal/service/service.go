// Package service holds the library business logic: CRUD orchestration over
// users and books and the borrow/return relationship between them.
package service

import (
	"context"
	"errors"

	"github.com/thoas/go-funk"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/patric-chuzhbe/library/internal/db/storage"
	"github.com/patric-chuzhbe/library/internal/models"
	"github.com/patric-chuzhbe/library/internal/objectid"
	"github.com/patric-chuzhbe/library/internal/shaper"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *storage.UserDocument) (*storage.UserDocument, error)
	GetUsers(ctx context.Context) ([]storage.UserDocument, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*storage.UserDocument, bool, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, patch storage.UserPatch) (*storage.UserDocument, bool, error)
	AddUserBook(ctx context.Context, id, bookID primitive.ObjectID) (*storage.UserDocument, bool, error)
	RemoveUserBook(ctx context.Context, id, bookID primitive.ObjectID) (bool, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type bookKeeper interface {
	CreateBook(ctx context.Context, book *storage.BookDocument) (*storage.BookDocument, error)
	GetBooks(ctx context.Context) ([]storage.BookDocument, error)
	GetBookByID(ctx context.Context, id primitive.ObjectID) (*storage.BookDocument, bool, error)
	GetBooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]storage.BookDocument, error)
	UpdateBook(ctx context.Context, id primitive.ObjectID, patch storage.BookPatch) (*storage.BookDocument, bool, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storageBackend interface {
	userKeeper
	bookKeeper
	pinger
}

// ErrUserNotFound is returned when the user id is malformed or refers to nothing.
var ErrUserNotFound = errors.New("user not found")

// ErrBookNotFound is returned when the book id is malformed or refers to nothing.
var ErrBookNotFound = errors.New("book not found")

// ErrValidation marks a request whose fields break the entity rules.
var ErrValidation = errors.New("validation failed")

type Service struct {
	db storageBackend
}

func New(db storageBackend) *Service {
	return &Service{
		db: db,
	}
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// BorrowBook attaches the book to the user. Borrowing a book the user already
// holds changes nothing and does not touch the store.
func (s *Service) BorrowBook(ctx context.Context, userID, bookID string) (models.User, error) {
	bookOID, ok := objectid.Parse(bookID)
	if !ok {
		return models.User{}, ErrBookNotFound
	}
	userOID, ok := objectid.Parse(userID)
	if !ok {
		return models.User{}, ErrUserNotFound
	}

	usr, book, err := s.getUserAndBook(ctx, userOID, bookOID)
	if err != nil {
		return models.User{}, err
	}

	if funk.ContainsString(objectid.Hexes(usr.Books), book.ID.Hex()) {
		return shaper.User(usr), nil
	}

	updated, found, err := s.db.AddUserBook(ctx, usr.ID, book.ID)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, ErrUserNotFound
	}

	return shaper.User(updated), nil
}

// ReturnBook detaches the book from the user. The book must still exist; the
// store is updated even when the book was never borrowed.
func (s *Service) ReturnBook(ctx context.Context, userID, bookID string) error {
	userOID, ok := objectid.Parse(userID)
	if !ok {
		return ErrUserNotFound
	}
	bookOID, ok := objectid.Parse(bookID)
	if !ok {
		return ErrBookNotFound
	}

	usr, book, err := s.getUserAndBook(ctx, userOID, bookOID)
	if err != nil {
		return err
	}

	found, err := s.db.RemoveUserBook(ctx, usr.ID, book.ID)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}

	return nil
}

// ListUserBooks expands the user's book references into full books, keeping the
// order of the user's list. References to books that no longer exist are skipped.
func (s *Service) ListUserBooks(ctx context.Context, userID string) ([]models.Book, error) {
	usr, err := s.getUserDocument(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(usr.Books) == 0 {
		return []models.Book{}, nil
	}

	books, err := s.db.GetBooksByIDs(ctx, usr.Books)
	if err != nil {
		return nil, err
	}

	booksByID := make(map[string]storage.BookDocument, len(books))
	for _, book := range books {
		booksByID[book.ID.Hex()] = book
	}

	ordered := make([]storage.BookDocument, 0, len(usr.Books))
	for _, id := range usr.Books {
		if book, found := booksByID[id.Hex()]; found {
			ordered = append(ordered, book)
		}
	}

	return shaper.Books(ordered), nil
}

// getUserAndBook fetches both parties of a loan concurrently. A missing user is
// reported before a missing book.
func (s *Service) getUserAndBook(
	ctx context.Context,
	userID,
	bookID primitive.ObjectID,
) (*storage.UserDocument, *storage.BookDocument, error) {
	var (
		usr       *storage.UserDocument
		book      *storage.BookDocument
		userFound bool
		bookFound bool
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		usr, userFound, err = s.db.GetUserByID(groupCtx, userID)
		return err
	})
	group.Go(func() error {
		var err error
		book, bookFound, err = s.db.GetBookByID(groupCtx, bookID)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	if !userFound {
		return nil, nil, ErrUserNotFound
	}
	if !bookFound {
		return nil, nil, ErrBookNotFound
	}

	return usr, book, nil
}

func (s *Service) getUserDocument(ctx context.Context, userID string) (*storage.UserDocument, error) {
	id, ok := objectid.Parse(userID)
	if !ok {
		return nil, ErrUserNotFound
	}

	usr, found, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	return usr, nil
}
