// Package shaper turns stored entities into their public form: the internal
// "_id" key becomes "id" and everything else passes through unchanged.
package shaper

import (
	"github.com/patric-chuzhbe/library/internal/db/storage"
	"github.com/patric-chuzhbe/library/internal/models"
	"github.com/patric-chuzhbe/library/internal/objectid"
)

func User(doc *storage.UserDocument) models.User {
	return models.User{
		ID:        doc.ID.Hex(),
		FirstName: doc.FirstName,
		LastName:  doc.LastName,
		Username:  doc.Username,
		Books:     objectid.Hexes(doc.Books),
	}
}

func Users(docs []storage.UserDocument) []models.User {
	result := make([]models.User, 0, len(docs))
	for i := range docs {
		result = append(result, User(&docs[i]))
	}

	return result
}

func Book(doc *storage.BookDocument) models.Book {
	return models.Book{
		ID:     doc.ID.Hex(),
		Title:  doc.Title,
		Author: doc.Author,
		Year:   doc.Year,
	}
}

func Books(docs []storage.BookDocument) []models.Book {
	result := make([]models.Book, 0, len(docs))
	for i := range docs {
		result = append(result, Book(&docs[i]))
	}

	return result
}
