// Package mongodb is the MongoDB implementation of the library storage.
// Users and books live in their own collections; a user's borrowed books are
// kept as an array of book ObjectIDs on the user document.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/patric-chuzhbe/library/internal/db/storage"
)

const (
	usersCollection = "users"
	booksCollection = "books"
)

// MongoDB holds the client session shared by both collections.
type MongoDB struct {
	client            *mongo.Client
	users             *mongo.Collection
	books             *mongo.Collection
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

type InitOption func(*initOptions)

// WithDBPreReset drops both collections right after connecting. Tests only.
func WithDBPreReset(dbPreReset bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = dbPreReset
	}
}

// New connects to MongoDB at uri, verifies the connection and returns a store
// bound to the given database.
func New(
	ctx context.Context,
	uri string,
	databaseName string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*MongoDB, error) {
	opts := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(opts)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(
		connectCtx,
		options.Client().
			ApplyURI(uri).
			SetConnectTimeout(connectionTimeout).
			SetServerSelectionTimeout(connectionTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/New(): error while `mongo.Connect()` calling: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/New(): error while `client.Ping()` calling: %w", err)
	}

	database := client.Database(databaseName)
	result := &MongoDB{
		client:            client,
		users:             database.Collection(usersCollection),
		books:             database.Collection(booksCollection),
		connectionTimeout: connectionTimeout,
	}

	if opts.DBPreReset {
		if err := result.resetDB(connectCtx); err != nil {
			return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/New(): error while `result.resetDB()` calling: %w", err)
		}
	}

	return result, nil
}

func (db *MongoDB) resetDB(ctx context.Context) error {
	if err := db.users.Drop(ctx); err != nil {
		return err
	}

	return db.books.Drop(ctx)
}

func (db *MongoDB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.client.Ping(ctx, readpref.Primary())
}

func (db *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), db.connectionTimeout)
	defer cancel()

	return db.client.Disconnect(ctx)
}

func (db *MongoDB) CreateUser(ctx context.Context, usr *storage.UserDocument) (*storage.UserDocument, error) {
	created := *usr
	created.ID = primitive.NewObjectID()
	if created.Books == nil {
		created.Books = []primitive.ObjectID{}
	}

	if _, err := db.users.InsertOne(ctx, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

func (db *MongoDB) GetUsers(ctx context.Context) ([]storage.UserDocument, error) {
	cursor, err := db.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	result := []storage.UserDocument{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (db *MongoDB) GetUserByID(ctx context.Context, id primitive.ObjectID) (*storage.UserDocument, bool, error) {
	var usr storage.UserDocument

	err := db.users.FindOne(ctx, bson.M{"_id": id}).Decode(&usr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &usr, true, nil
}

func (db *MongoDB) UpdateUser(
	ctx context.Context,
	id primitive.ObjectID,
	patch storage.UserPatch,
) (*storage.UserDocument, bool, error) {
	if patch.IsEmpty() {
		return db.GetUserByID(ctx, id)
	}

	set := bson.M{}
	if patch.FirstName != nil {
		set["firstName"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = *patch.LastName
	}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}

	var usr storage.UserDocument
	err := db.users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&usr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &usr, true, nil
}

// AddUserBook appends bookID with $addToSet, so a reference already present
// is left alone and concurrent additions are all kept.
func (db *MongoDB) AddUserBook(ctx context.Context, id, bookID primitive.ObjectID) (*storage.UserDocument, bool, error) {
	var usr storage.UserDocument
	err := db.users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"books": bookID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&usr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &usr, true, nil
}

func (db *MongoDB) RemoveUserBook(ctx context.Context, id, bookID primitive.ObjectID) (bool, error) {
	res, err := db.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"books": bookID}})
	if err != nil {
		return false, err
	}

	return res.MatchedCount > 0, nil
}

func (db *MongoDB) DeleteUser(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := db.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}

	return res.DeletedCount > 0, nil
}

func (db *MongoDB) CreateBook(ctx context.Context, book *storage.BookDocument) (*storage.BookDocument, error) {
	created := *book
	created.ID = primitive.NewObjectID()

	if _, err := db.books.InsertOne(ctx, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

func (db *MongoDB) GetBooks(ctx context.Context) ([]storage.BookDocument, error) {
	return db.findBooks(ctx, bson.M{})
}

func (db *MongoDB) GetBookByID(ctx context.Context, id primitive.ObjectID) (*storage.BookDocument, bool, error) {
	var book storage.BookDocument

	err := db.books.FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &book, true, nil
}

func (db *MongoDB) GetBooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]storage.BookDocument, error) {
	if len(ids) == 0 {
		return []storage.BookDocument{}, nil
	}

	return db.findBooks(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (db *MongoDB) UpdateBook(
	ctx context.Context,
	id primitive.ObjectID,
	patch storage.BookPatch,
) (*storage.BookDocument, bool, error) {
	if patch.IsEmpty() {
		return db.GetBookByID(ctx, id)
	}

	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Author != nil {
		set["author"] = *patch.Author
	}
	if patch.Year != nil {
		set["year"] = *patch.Year
	}

	var book storage.BookDocument
	err := db.books.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &book, true, nil
}

func (db *MongoDB) DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := db.books.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}

	return res.DeletedCount > 0, nil
}

func (db *MongoDB) findBooks(ctx context.Context, filter bson.M) ([]storage.BookDocument, error) {
	cursor, err := db.books.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := []storage.BookDocument{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}

	return result, nil
}
