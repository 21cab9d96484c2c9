// Package jsondb is a document store kept in memory and persisted to a JSON
// file. The file is read on New and written back on Close.
package jsondb

import (
	"context"
	"fmt"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/patric-chuzhbe/library/internal/db/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the whole database. Slices keep insertion order, which is
// the order list operations return.
type CacheStruct struct {
	Users []storage.UserDocument
	Books []storage.BookDocument
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": [],
	"Books": []
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close writes the database to its file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}

func (db *JSONDB) CreateUser(ctx context.Context, usr *storage.UserDocument) (*storage.UserDocument, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	created := copyUser(*usr)
	created.ID = primitive.NewObjectID()
	db.Cache.Users = append(db.Cache.Users, created)

	result := copyUser(created)
	return &result, nil
}

func (db *JSONDB) GetUsers(ctx context.Context) ([]storage.UserDocument, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := make([]storage.UserDocument, 0, len(db.Cache.Users))
	for _, usr := range db.Cache.Users {
		result = append(result, copyUser(usr))
	}

	return result, nil
}

func (db *JSONDB) GetUserByID(ctx context.Context, id primitive.ObjectID) (*storage.UserDocument, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	i := db.userIndex(id)
	if i < 0 {
		return nil, false, nil
	}

	result := copyUser(db.Cache.Users[i])
	return &result, true, nil
}

func (db *JSONDB) UpdateUser(
	ctx context.Context,
	id primitive.ObjectID,
	patch storage.UserPatch,
) (*storage.UserDocument, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.userIndex(id)
	if i < 0 {
		return nil, false, nil
	}

	patch.Apply(&db.Cache.Users[i])

	result := copyUser(db.Cache.Users[i])
	return &result, true, nil
}

// AddUserBook appends bookID to the user's references unless it is already
// there. The check and the append happen under one lock.
func (db *JSONDB) AddUserBook(ctx context.Context, id, bookID primitive.ObjectID) (*storage.UserDocument, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.userIndex(id)
	if i < 0 {
		return nil, false, nil
	}

	usr := &db.Cache.Users[i]
	if !containsID(usr.Books, bookID) {
		usr.Books = append(usr.Books, bookID)
	}

	result := copyUser(*usr)
	return &result, true, nil
}

// RemoveUserBook drops every reference to bookID from the user.
func (db *JSONDB) RemoveUserBook(ctx context.Context, id, bookID primitive.ObjectID) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.userIndex(id)
	if i < 0 {
		return false, nil
	}

	remaining := make([]primitive.ObjectID, 0, len(db.Cache.Users[i].Books))
	for _, held := range db.Cache.Users[i].Books {
		if held != bookID {
			remaining = append(remaining, held)
		}
	}
	db.Cache.Users[i].Books = remaining

	return true, nil
}

func (db *JSONDB) DeleteUser(ctx context.Context, id primitive.ObjectID) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.userIndex(id)
	if i < 0 {
		return false, nil
	}

	db.Cache.Users = append(db.Cache.Users[:i], db.Cache.Users[i+1:]...)

	return true, nil
}

func (db *JSONDB) CreateBook(ctx context.Context, book *storage.BookDocument) (*storage.BookDocument, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	created := *book
	created.ID = primitive.NewObjectID()
	db.Cache.Books = append(db.Cache.Books, created)

	return &created, nil
}

func (db *JSONDB) GetBooks(ctx context.Context) ([]storage.BookDocument, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return append([]storage.BookDocument{}, db.Cache.Books...), nil
}

func (db *JSONDB) GetBookByID(ctx context.Context, id primitive.ObjectID) (*storage.BookDocument, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	i := db.bookIndex(id)
	if i < 0 {
		return nil, false, nil
	}

	result := db.Cache.Books[i]
	return &result, true, nil
}

func (db *JSONDB) GetBooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]storage.BookDocument, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	wanted := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	result := []storage.BookDocument{}
	for _, book := range db.Cache.Books {
		if _, found := wanted[book.ID]; found {
			result = append(result, book)
		}
	}

	return result, nil
}

func (db *JSONDB) UpdateBook(
	ctx context.Context,
	id primitive.ObjectID,
	patch storage.BookPatch,
) (*storage.BookDocument, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.bookIndex(id)
	if i < 0 {
		return nil, false, nil
	}

	patch.Apply(&db.Cache.Books[i])

	result := db.Cache.Books[i]
	return &result, true, nil
}

func (db *JSONDB) DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.bookIndex(id)
	if i < 0 {
		return false, nil
	}

	db.Cache.Books = append(db.Cache.Books[:i], db.Cache.Books[i+1:]...)

	return true, nil
}

func (db *JSONDB) userIndex(id primitive.ObjectID) int {
	for i := range db.Cache.Users {
		if db.Cache.Users[i].ID == id {
			return i
		}
	}

	return -1
}

func (db *JSONDB) bookIndex(id primitive.ObjectID) int {
	for i := range db.Cache.Books {
		if db.Cache.Books[i].ID == id {
			return i
		}
	}

	return -1
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}

	return false
}

func copyUser(usr storage.UserDocument) storage.UserDocument {
	usr.Books = append([]primitive.ObjectID{}, usr.Books...)
	return usr
}
