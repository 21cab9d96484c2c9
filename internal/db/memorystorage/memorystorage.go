// Package memorystorage is the JSON document store without a backing file.
// Everything is lost when the process exits.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/library/internal/db/jsondb"
	"github.com/patric-chuzhbe/library/internal/db/storage"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users: []storage.UserDocument{},
				Books: []storage.BookDocument{},
			},
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
