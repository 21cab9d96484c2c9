// Package router exposes the library over HTTP/JSON. Handlers decode and
// validate the request, call the service and either write the result or hand
// the error to writeError, the only place where errors become status codes.
package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/patric-chuzhbe/library/internal/gzippedhttp"
	"github.com/patric-chuzhbe/library/internal/logger"
	"github.com/patric-chuzhbe/library/internal/models"
	"github.com/patric-chuzhbe/library/internal/objectid"
	"github.com/patric-chuzhbe/library/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	idParam     = "id"
	bookIDParam = "bookId"

	errorNotFound       = "Not found"
	errorUserNotFound   = "User not found"
	errorBookNotFound   = "Book not found"
	errorInternalServer = "Internal server error"
)

type userService interface {
	CreateUser(ctx context.Context, request models.CreateUserRequest) (models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, userID string) (models.User, error)
	UpdateUser(ctx context.Context, userID string, request models.UpdateUserRequest) (models.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

type bookService interface {
	CreateBook(ctx context.Context, request models.CreateBookRequest) (models.Book, error)
	GetBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, bookID string) (models.Book, error)
	UpdateBook(ctx context.Context, bookID string, request models.UpdateBookRequest) (models.Book, error)
	DeleteBook(ctx context.Context, bookID string) error
}

type loanService interface {
	BorrowBook(ctx context.Context, userID, bookID string) (models.User, error)
	ReturnBook(ctx context.Context, userID, bookID string) error
	ListUserBooks(ctx context.Context, userID string) ([]models.Book, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type libraryService interface {
	userService
	bookService
	loanService
	pinger
}

type originPolicy interface {
	AllowOriginFunc(r *http.Request, origin string) bool
}

type metricsCollector interface {
	Middleware(h http.Handler) http.Handler
	Handler() http.Handler
}

// Router holds the dependencies of the HTTP handlers.
type Router struct {
	svc      libraryService
	validate *validator.Validate
}

// New builds the chi mux serving the library API. requestMetrics may be nil,
// in which case neither the metrics middleware nor /metrics is mounted.
func New(svc libraryService, origins originPolicy, requestMetrics metricsCollector) *chi.Mux {
	theRouter := &Router{
		svc:      svc,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(middleware.Recoverer)
	if requestMetrics != nil {
		router.Use(requestMetrics.Middleware)
	}
	router.Use(cors.Handler(cors.Options{
		AllowOriginFunc: origins.AllowOriginFunc,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Encoding", logger.RequestIDHeader},
		ExposedHeaders: []string{logger.RequestIDHeader},
		MaxAge:         300,
	}))
	router.Use(gzippedhttp.UngzipRequest)
	router.Use(gzippedhttp.GzipResponse)

	router.NotFound(notFound)
	router.MethodNotAllowed(notFound)

	router.Get(`/ping`, theRouter.GetPing)
	if requestMetrics != nil {
		router.Method(http.MethodGet, `/metrics`, requestMetrics.Handler())
	}

	router.Route(`/users`, func(r chi.Router) {
		r.Get(`/`, theRouter.GetUsers)
		r.Post(`/`, theRouter.PostUsers)
		r.Route(`/{id}`, func(r chi.Router) {
			r.Get(`/`, theRouter.GetUser)
			r.Patch(`/`, theRouter.PatchUser)
			r.Delete(`/`, theRouter.DeleteUser)
			r.Get(`/books`, theRouter.GetUserBooks)
			r.Post(`/books`, theRouter.PostUserBooks)
			r.Delete(`/books/{bookId}`, theRouter.DeleteUserBook)
		})
	})

	router.Route(`/books`, func(r chi.Router) {
		r.Get(`/`, theRouter.GetBooks)
		r.Post(`/`, theRouter.PostBooks)
		r.Get(`/{id}`, theRouter.GetBook)
		r.Patch(`/{id}`, theRouter.PatchBook)
		r.Delete(`/{id}`, theRouter.DeleteBook)
	})

	return router
}

// GetPing reports whether the storage is reachable.
func (router *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := router.svc.Ping(req.Context()); err != nil {
		writeError(res, err)
		return
	}

	res.WriteHeader(http.StatusOK)
}

func (router *Router) GetUsers(res http.ResponseWriter, req *http.Request) {
	users, err := router.svc.GetUsers(req.Context())
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, users)
}

func (router *Router) PostUsers(res http.ResponseWriter, req *http.Request) {
	var request models.CreateUserRequest
	if err := router.decodeAndValidate(req.Body, &request); err != nil {
		writeError(res, err)
		return
	}

	created, err := router.svc.CreateUser(req.Context(), request)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, created)
}

func (router *Router) GetUser(res http.ResponseWriter, req *http.Request) {
	usr, err := router.svc.GetUser(req.Context(), chi.URLParam(req, idParam))
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, usr)
}

// PatchUser updates the supplied fields of the user. The id is checked before
// the body so that a malformed id is a 404 whatever the body holds.
func (router *Router) PatchUser(res http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, idParam)
	if !objectid.IsValid(userID) {
		writeError(res, service.ErrUserNotFound)
		return
	}

	var request models.UpdateUserRequest
	if err := router.decodeAndValidate(req.Body, &request); err != nil {
		writeError(res, err)
		return
	}

	updated, err := router.svc.UpdateUser(req.Context(), userID, request)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, updated)
}

func (router *Router) DeleteUser(res http.ResponseWriter, req *http.Request) {
	if err := router.svc.DeleteUser(req.Context(), chi.URLParam(req, idParam)); err != nil {
		writeError(res, err)
		return
	}

	res.WriteHeader(http.StatusNoContent)
}

func (router *Router) GetUserBooks(res http.ResponseWriter, req *http.Request) {
	books, err := router.svc.ListUserBooks(req.Context(), chi.URLParam(req, idParam))
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, books)
}

// PostUserBooks borrows the book named by book_id in the body. A body that
// cannot be decoded on a malformed user id is a 404 like any other id error.
func (router *Router) PostUserBooks(res http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, idParam)

	var request models.BorrowBookRequest
	if err := decodeBody(req.Body, &request); err != nil {
		if !objectid.IsValid(userID) {
			err = service.ErrUserNotFound
		}
		writeError(res, err)
		return
	}

	bookID, ok := objectid.FromValue(request.BookID)
	if !ok {
		writeError(res, service.ErrBookNotFound)
		return
	}

	usr, err := router.svc.BorrowBook(req.Context(), userID, bookID)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, usr)
}

func (router *Router) DeleteUserBook(res http.ResponseWriter, req *http.Request) {
	err := router.svc.ReturnBook(
		req.Context(),
		chi.URLParam(req, idParam),
		chi.URLParam(req, bookIDParam),
	)
	if err != nil {
		writeError(res, err)
		return
	}

	res.WriteHeader(http.StatusNoContent)
}

func (router *Router) GetBooks(res http.ResponseWriter, req *http.Request) {
	books, err := router.svc.GetBooks(req.Context())
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, books)
}

func (router *Router) PostBooks(res http.ResponseWriter, req *http.Request) {
	var request models.CreateBookRequest
	if err := router.decodeAndValidate(req.Body, &request); err != nil {
		writeError(res, err)
		return
	}

	created, err := router.svc.CreateBook(req.Context(), request)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, created)
}

func (router *Router) GetBook(res http.ResponseWriter, req *http.Request) {
	book, err := router.svc.GetBook(req.Context(), chi.URLParam(req, idParam))
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, book)
}

func (router *Router) PatchBook(res http.ResponseWriter, req *http.Request) {
	bookID := chi.URLParam(req, idParam)
	if !objectid.IsValid(bookID) {
		writeError(res, service.ErrBookNotFound)
		return
	}

	var request models.UpdateBookRequest
	if err := router.decodeAndValidate(req.Body, &request); err != nil {
		writeError(res, err)
		return
	}

	updated, err := router.svc.UpdateBook(req.Context(), bookID, request)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, updated)
}

func (router *Router) DeleteBook(res http.ResponseWriter, req *http.Request) {
	if err := router.svc.DeleteBook(req.Context(), chi.URLParam(req, idParam)); err != nil {
		writeError(res, err)
		return
	}

	res.WriteHeader(http.StatusNoContent)
}

func (router *Router) decodeAndValidate(body io.Reader, request interface{}) error {
	if err := decodeBody(body, request); err != nil {
		return err
	}

	if err := router.validate.Struct(request); err != nil {
		return fmt.Errorf("%w: %s", service.ErrValidation, err.Error())
	}

	return nil
}

// decodeBody reads a JSON body into request. An empty body decodes as {}.
func decodeBody(body io.Reader, request interface{}) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("unreadable request body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, request); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}

	return nil
}

func notFound(res http.ResponseWriter, _ *http.Request) {
	writeJSON(res, http.StatusNotFound, models.ErrorResponse{Error: errorNotFound})
}

// writeError maps a handler error to its response. Not-found errors become
// 404; everything else, validation failures included, is a 500.
func writeError(res http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeJSON(res, http.StatusNotFound, models.ErrorResponse{Error: errorUserNotFound})
	case errors.Is(err, service.ErrBookNotFound):
		writeJSON(res, http.StatusNotFound, models.ErrorResponse{Error: errorBookNotFound})
	default:
		logger.Log.Errorln("request failed:", err)
		writeJSON(res, http.StatusInternalServerError, models.ErrorResponse{
			Error:   errorInternalServer,
			Message: err.Error(),
		})
	}
}

func writeJSON(res http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorln("error while `json.Marshal()` calling:", err)
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)

	if _, err := res.Write(body); err != nil {
		logger.Log.Debugln("error while `res.Write()` calling:", err)
	}
}
