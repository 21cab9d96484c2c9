package models

// User is the public representation of a library user.
type User struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Username  string   `json:"username"`
	Books     []string `json:"books"`
}

// Book is the public representation of a book.
type Book struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=20"`
	LastName  string `json:"lastName" validate:"required,min=2,max=20"`
	Username  string `json:"username" validate:"required,len=5"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=20"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=20"`
	Username  *string `json:"username" validate:"omitempty,len=5"`
}

type CreateBookRequest struct {
	Title  string `json:"title" validate:"required,min=2,max=20"`
	Author string `json:"author" validate:"required,min=2,max=20"`
	Year   *int   `json:"year" validate:"required"`
}

type UpdateBookRequest struct {
	Title  *string `json:"title" validate:"omitempty,min=2,max=20"`
	Author *string `json:"author" validate:"omitempty,min=2,max=20"`
	Year   *int    `json:"year"`
}

// BorrowBookRequest keeps book_id untyped so that non-string input
// (arrays, numbers, objects) reaches the identifier check instead of
// failing the decode.
type BorrowBookRequest struct {
	BookID any `json:"book_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

const (
	StorageTypeUnknown = iota
	StorageTypeMongoDB
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// StorageTypes maps the configuration names of the storage backends to their types.
var StorageTypes = map[string]int{
	"mongodb":  StorageTypeMongoDB,
	"postgres": StorageTypePostgresql,
	"file":     StorageTypeFile,
	"memory":   StorageTypeMemory,
}
