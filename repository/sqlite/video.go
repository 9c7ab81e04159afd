package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"

	"legis-text/errors"
	"legis-text/models"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Repository stores processed videos in SQLite. Uniqueness of the id column
// is enforced by the PRIMARY KEY constraint, not by application-level checks,
// so a lost insert race surfaces as a duplicate error rather than corruption.
type Repository struct {
	db    *sql.DB
	stmts preparedStatements
}

func NewRepository(db *sql.DB) (*Repository, error) {
	r := &Repository{db: db}
	if err := r.stmts.prepare(context.Background(), db); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() {
	r.stmts.close()
}

func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	const op = "SQLiteRepository.Exists"

	var one int
	err := r.stmts.exists.QueryRowContext(ctx, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Storage(op, err, "failed to query video record")
	}
	return true, nil
}

func (r *Repository) Insert(ctx context.Context, record *models.VideoRecord) error {
	const op = "SQLiteRepository.Insert"

	_, err := r.stmts.insert.ExecContext(ctx,
		record.ID,
		record.Name,
		string(record.Source),
		record.Locator,
		record.PublishedAt,
		record.Transcript,
		record.ProcessedAt,
	)
	if err != nil {
		if isConstraintError(err) {
			return errors.Duplicate(op, err)
		}
		return errors.Storage(op, err, "failed to insert video record")
	}
	return nil
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !stderrors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
