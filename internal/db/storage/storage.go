// Package storage defines the stored form of library entities and the
// contract every storage backend implements.
package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserDocument is a user as persisted by the store. The identifier lives
// under the internal "_id" key.
type UserDocument struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	FirstName string               `bson:"firstName" json:"firstName"`
	LastName  string               `bson:"lastName" json:"lastName"`
	Username  string               `bson:"username" json:"username"`
	Books     []primitive.ObjectID `bson:"books" json:"books"`
}

// BookDocument is a book as persisted by the store.
type BookDocument struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title  string             `bson:"title" json:"title"`
	Author string             `bson:"author" json:"author"`
	Year   int                `bson:"year" json:"year"`
}

// UserPatch lists the user fields to overwrite. Nil fields are left untouched.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Username  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Username == nil
}

// Apply merges the patch into doc.
func (p UserPatch) Apply(doc *UserDocument) {
	if p.FirstName != nil {
		doc.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		doc.LastName = *p.LastName
	}
	if p.Username != nil {
		doc.Username = *p.Username
	}
}

// BookPatch lists the book fields to overwrite. Nil fields are left untouched.
type BookPatch struct {
	Title  *string
	Author *string
	Year   *int
}

// IsEmpty reports whether the patch changes nothing.
func (p BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Year == nil
}

// Apply merges the patch into doc.
func (p BookPatch) Apply(doc *BookDocument) {
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Author != nil {
		doc.Author = *p.Author
	}
	if p.Year != nil {
		doc.Year = *p.Year
	}
}

// UserKeeper persists users and their borrowed-book reference lists.
//
// Lookups report absence through the boolean result, never through the error.
// AddUserBook and RemoveUserBook change the reference list in one atomic step
// so that concurrent loans of the same user never overwrite each other.
type UserKeeper interface {
	CreateUser(ctx context.Context, usr *UserDocument) (*UserDocument, error)
	GetUsers(ctx context.Context) ([]UserDocument, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*UserDocument, bool, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, patch UserPatch) (*UserDocument, bool, error)
	AddUserBook(ctx context.Context, id, bookID primitive.ObjectID) (*UserDocument, bool, error)
	RemoveUserBook(ctx context.Context, id, bookID primitive.ObjectID) (bool, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// BookKeeper persists books.
type BookKeeper interface {
	CreateBook(ctx context.Context, book *BookDocument) (*BookDocument, error)
	GetBooks(ctx context.Context) ([]BookDocument, error)
	GetBookByID(ctx context.Context, id primitive.ObjectID) (*BookDocument, bool, error)
	GetBooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]BookDocument, error)
	UpdateBook(ctx context.Context, id primitive.ObjectID, patch BookPatch) (*BookDocument, bool, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// Storage is the full contract of a storage backend.
type Storage interface {
	UserKeeper
	BookKeeper

	Ping(ctx context.Context) error

	Close() error
}
