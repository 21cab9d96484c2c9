// Package postgresdb provides a PostgreSQL-based implementation of the library
// storage. Identifiers are ObjectIDs generated by the application and stored in
// their hex form; a user's borrowed books are a text[] column on the user row.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/patric-chuzhbe/library/internal/db/postgresdb/migrations"
	"github.com/patric-chuzhbe/library/internal/db/storage"
	"github.com/patric-chuzhbe/library/internal/objectid"
)

const (
	dialectPostgres = "postgres"

	tableUsers = "users"
	tableBooks = "books"

	colID        = "id"
	colFirstName = "first_name"
	colLastName  = "last_name"
	colUsername  = "username"
	colBooks     = "books"
	colTitle     = "title"
	colAuthor    = "author"
	colYear      = "year"

	// books travels as its text form so that pq.StringArray can scan it
	// whatever the driver does with native arrays.
	castBooksToText   = "books::text"
	castTextToTextArr = "?::text::text[]"

	appendBook  = "array_append(books, ?::text)"
	removeBook  = "array_remove(books, ?::text)"
	bookNotHeld = "NOT (?::text = ANY(books))"
)

// PostgresDB is a PostgreSQL-backed implementation of the library storage.
type PostgresDB struct {
	database          *sqlx.DB
	dialect           goqu.DialectWrapper
	connectionTimeout time.Duration
}

type userRow struct {
	ID        string         `db:"id"`
	FirstName string         `db:"first_name"`
	LastName  string         `db:"last_name"`
	Username  string         `db:"username"`
	Books     pq.StringArray `db:"books"`
}

type bookRow struct {
	ID     string `db:"id"`
	Title  string `db:"title"`
	Author string `db:"author"`
	Year   int    `db:"year"`
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables dropping every table before migration.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database, runs the embedded
// schema migrations and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sqlx.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		dialect:           goqu.Dialect(dialectPostgres),
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w",
				err,
			)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect(dialectPostgres); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database.DB, "."); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the underlying connection pool.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) CreateUser(ctx context.Context, usr *storage.UserDocument) (*storage.UserDocument, error) {
	created := *usr
	created.ID = primitive.NewObjectID()
	if created.Books == nil {
		created.Books = []primitive.ObjectID{}
	}

	books, err := booksLiteral(created.Books)
	if err != nil {
		return nil, err
	}

	query, args, err := db.dialect.
		Insert(tableUsers).
		Rows(goqu.Record{
			colID:        created.ID.Hex(),
			colFirstName: created.FirstName,
			colLastName:  created.LastName,
			colUsername:  created.Username,
			colBooks:     goqu.L(castTextToTextArr, books),
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}

	if _, err := db.database.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	return &created, nil
}

func (db *PostgresDB) GetUsers(ctx context.Context) ([]storage.UserDocument, error) {
	query, args, err := db.selectUsers().
		Order(goqu.I(colID).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []userRow
	if err := db.database.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	result := make([]storage.UserDocument, 0, len(rows))
	for _, row := range rows {
		usr, err := row.toDocument()
		if err != nil {
			return nil, err
		}
		result = append(result, *usr)
	}

	return result, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id primitive.ObjectID) (*storage.UserDocument, bool, error) {
	query, args, err := db.selectUsers().
		Where(goqu.C(colID).Eq(id.Hex())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, false, err
	}

	var row userRow
	if err := db.database.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	usr, err := row.toDocument()
	if err != nil {
		return nil, false, err
	}

	return usr, true, nil
}

func (db *PostgresDB) UpdateUser(
	ctx context.Context,
	id primitive.ObjectID,
	patch storage.UserPatch,
) (*storage.UserDocument, bool, error) {
	if patch.IsEmpty() {
		return db.GetUserByID(ctx, id)
	}

	record := goqu.Record{}
	if patch.FirstName != nil {
		record[colFirstName] = *patch.FirstName
	}
	if patch.LastName != nil {
		record[colLastName] = *patch.LastName
	}
	if patch.Username != nil {
		record[colUsername] = *patch.Username
	}

	query, args, err := db.dialect.
		Update(tableUsers).
		Set(record).
		Where(goqu.C(colID).Eq(id.Hex())).
		Returning(userColumns()...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, false, err
	}

	var row userRow
	if err := db.database.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	usr, err := row.toDocument()
	if err != nil {
		return nil, false, err
	}

	return usr, true, nil
}

// AddUserBook appends bookID in a single UPDATE guarded by the same
// membership test, so the row lock orders concurrent borrows and none is lost.
// No row comes back when the user is missing or already holds the book.
func (db *PostgresDB) AddUserBook(ctx context.Context, id, bookID primitive.ObjectID) (*storage.UserDocument, bool, error) {
	query, args, err := db.dialect.
		Update(tableUsers).
		Set(goqu.Record{colBooks: goqu.L(appendBook, bookID.Hex())}).
		Where(
			goqu.C(colID).Eq(id.Hex()),
			goqu.L(bookNotHeld, bookID.Hex()),
		).
		Returning(userColumns()...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, false, err
	}

	var row userRow
	if err := db.database.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.GetUserByID(ctx, id)
		}
		return nil, false, err
	}

	usr, err := row.toDocument()
	if err != nil {
		return nil, false, err
	}

	return usr, true, nil
}

func (db *PostgresDB) RemoveUserBook(ctx context.Context, id, bookID primitive.ObjectID) (bool, error) {
	query, args, err := db.dialect.
		Update(tableUsers).
		Set(goqu.Record{colBooks: goqu.L(removeBook, bookID.Hex())}).
		Where(goqu.C(colID).Eq(id.Hex())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, err
	}

	res, err := db.database.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (db *PostgresDB) DeleteUser(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return db.deleteByID(ctx, tableUsers, id)
}

func (db *PostgresDB) CreateBook(ctx context.Context, book *storage.BookDocument) (*storage.BookDocument, error) {
	created := *book
	created.ID = primitive.NewObjectID()

	query, args, err := db.dialect.
		Insert(tableBooks).
		Rows(goqu.Record{
			colID:     created.ID.Hex(),
			colTitle:  created.Title,
			colAuthor: created.Author,
			colYear:   created.Year,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}

	if _, err := db.database.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	return &created, nil
}

func (db *PostgresDB) GetBooks(ctx context.Context) ([]storage.BookDocument, error) {
	return db.findBooks(ctx, db.selectBooks().Order(goqu.I(colID).Asc()))
}

func (db *PostgresDB) GetBookByID(ctx context.Context, id primitive.ObjectID) (*storage.BookDocument, bool, error) {
	query, args, err := db.selectBooks().
		Where(goqu.C(colID).Eq(id.Hex())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, false, err
	}

	var row bookRow
	if err := db.database.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	book, err := row.toDocument()
	if err != nil {
		return nil, false, err
	}

	return book, true, nil
}

func (db *PostgresDB) GetBooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]storage.BookDocument, error) {
	if len(ids) == 0 {
		return []storage.BookDocument{}, nil
	}

	return db.findBooks(ctx, db.selectBooks().Where(goqu.C(colID).In(objectid.Hexes(ids))))
}

func (db *PostgresDB) UpdateBook(
	ctx context.Context,
	id primitive.ObjectID,
	patch storage.BookPatch,
) (*storage.BookDocument, bool, error) {
	if patch.IsEmpty() {
		return db.GetBookByID(ctx, id)
	}

	record := goqu.Record{}
	if patch.Title != nil {
		record[colTitle] = *patch.Title
	}
	if patch.Author != nil {
		record[colAuthor] = *patch.Author
	}
	if patch.Year != nil {
		record[colYear] = *patch.Year
	}

	query, args, err := db.dialect.
		Update(tableBooks).
		Set(record).
		Where(goqu.C(colID).Eq(id.Hex())).
		Returning(colID, colTitle, colAuthor, colYear).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, false, err
	}

	var row bookRow
	if err := db.database.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	book, err := row.toDocument()
	if err != nil {
		return nil, false, err
	}

	return book, true, nil
}

func (db *PostgresDB) DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return db.deleteByID(ctx, tableBooks, id)
}

func (db *PostgresDB) selectUsers() *goqu.SelectDataset {
	return db.dialect.From(tableUsers).Select(userColumns()...)
}

func (db *PostgresDB) selectBooks() *goqu.SelectDataset {
	return db.dialect.From(tableBooks).Select(colID, colTitle, colAuthor, colYear)
}

func (db *PostgresDB) findBooks(ctx context.Context, selectStmt *goqu.SelectDataset) ([]storage.BookDocument, error) {
	query, args, err := selectStmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []bookRow
	if err := db.database.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	result := make([]storage.BookDocument, 0, len(rows))
	for _, row := range rows {
		book, err := row.toDocument()
		if err != nil {
			return nil, err
		}
		result = append(result, *book)
	}

	return result, nil
}

func (db *PostgresDB) deleteByID(ctx context.Context, table string, id primitive.ObjectID) (bool, error) {
	query, args, err := db.dialect.
		Delete(table).
		Where(goqu.C(colID).Eq(id.Hex())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, err
	}

	res, err := db.database.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}

	return nil
}

func userColumns() []interface{} {
	return []interface{}{
		colID,
		colFirstName,
		colLastName,
		colUsername,
		goqu.L(castBooksToText).As(colBooks),
	}
}

func booksLiteral(books []primitive.ObjectID) (string, error) {
	value, err := pq.StringArray(objectid.Hexes(books)).Value()
	if err != nil {
		return "", err
	}

	literal, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected array literal type %T", value)
	}

	return literal, nil
}

func (row userRow) toDocument() (*storage.UserDocument, error) {
	id, err := primitive.ObjectIDFromHex(row.ID)
	if err != nil {
		return nil, err
	}

	books := make([]primitive.ObjectID, 0, len(row.Books))
	for _, hex := range row.Books {
		bookID, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, err
		}
		books = append(books, bookID)
	}

	return &storage.UserDocument{
		ID:        id,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Username:  row.Username,
		Books:     books,
	}, nil
}

func (row bookRow) toDocument() (*storage.BookDocument, error) {
	id, err := primitive.ObjectIDFromHex(row.ID)
	if err != nil {
		return nil, err
	}

	return &storage.BookDocument{
		ID:     id,
		Title:  row.Title,
		Author: row.Author,
		Year:   row.Year,
	}, nil
}
