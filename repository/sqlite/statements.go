package sqlite

import (
	"context"
	"database/sql"

	"legis-text/errors"
)

const (
	insertVideoQuery = `
        INSERT INTO videos (
            id, name, source, url, published_at, transcript, processed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
    `

	existsVideoQuery = `
        SELECT 1 FROM videos WHERE id = ?
    `
)

type preparedStatements struct {
	insert *sql.Stmt
	exists *sql.Stmt
}

func (stmts *preparedStatements) prepare(ctx context.Context, db *sql.DB) error {
	const op = "preparedStatements.prepare"

	var err error
	if stmts.insert, err = db.PrepareContext(ctx, insertVideoQuery); err != nil {
		return errors.Storage(op, err, "failed to prepare insert statement")
	}
	if stmts.exists, err = db.PrepareContext(ctx, existsVideoQuery); err != nil {
		return errors.Storage(op, err, "failed to prepare exists statement")
	}
	return nil
}

func (stmts *preparedStatements) close() {
	if stmts.insert != nil {
		stmts.insert.Close()
	}
	if stmts.exists != nil {
		stmts.exists.Close()
	}
}
