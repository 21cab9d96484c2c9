package service

import (
	"context"

	"github.com/patric-chuzhbe/library/internal/db/storage"
	"github.com/patric-chuzhbe/library/internal/models"
	"github.com/patric-chuzhbe/library/internal/objectid"
	"github.com/patric-chuzhbe/library/internal/shaper"
)

func (s *Service) CreateBook(ctx context.Context, request models.CreateBookRequest) (models.Book, error) {
	book := &storage.BookDocument{
		Title:  request.Title,
		Author: request.Author,
	}
	if request.Year != nil {
		book.Year = *request.Year
	}

	created, err := s.db.CreateBook(ctx, book)
	if err != nil {
		return models.Book{}, err
	}

	return shaper.Book(created), nil
}

func (s *Service) GetBooks(ctx context.Context) ([]models.Book, error) {
	books, err := s.db.GetBooks(ctx)
	if err != nil {
		return nil, err
	}

	return shaper.Books(books), nil
}

func (s *Service) GetBook(ctx context.Context, bookID string) (models.Book, error) {
	id, ok := objectid.Parse(bookID)
	if !ok {
		return models.Book{}, ErrBookNotFound
	}

	book, found, err := s.db.GetBookByID(ctx, id)
	if err != nil {
		return models.Book{}, err
	}
	if !found {
		return models.Book{}, ErrBookNotFound
	}

	return shaper.Book(book), nil
}

// UpdateBook merges the supplied fields into the book and returns the result.
func (s *Service) UpdateBook(ctx context.Context, bookID string, request models.UpdateBookRequest) (models.Book, error) {
	id, ok := objectid.Parse(bookID)
	if !ok {
		return models.Book{}, ErrBookNotFound
	}

	updated, found, err := s.db.UpdateBook(ctx, id, storage.BookPatch{
		Title:  request.Title,
		Author: request.Author,
		Year:   request.Year,
	})
	if err != nil {
		return models.Book{}, err
	}
	if !found {
		return models.Book{}, ErrBookNotFound
	}

	return shaper.Book(updated), nil
}

// DeleteBook removes the book. Users that borrowed it keep the reference.
func (s *Service) DeleteBook(ctx context.Context, bookID string) error {
	id, ok := objectid.Parse(bookID)
	if !ok {
		return ErrBookNotFound
	}

	deleted, err := s.db.DeleteBook(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBookNotFound
	}

	return nil
}
