package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/google/uuid"
)

const grammarColumns = `id, owner, name, source, ast, created, modified`

type GrammarsDB struct {
	db *sql.DB
}

func (repo *GrammarsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS grammars (
		id TEXT NOT NULL PRIMARY KEY,
		owner TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		ast TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *GrammarsDB) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO grammars (` + grammarColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.ExecContext(
		ctx,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(g.Owner),
		g.Name,
		g.Source,
		convertToDB_Grammar(g.AST),
		convertToDB_Time(now),
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *GrammarsDB) GetAll(ctx context.Context) ([]dao.Grammar, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT `+grammarColumns+` FROM grammars ORDER BY name, id;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	return scanGrammars(rows)
}

func (repo *GrammarsDB) GetAllByOwner(ctx context.Context, owner uuid.UUID) ([]dao.Grammar, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT `+grammarColumns+` FROM grammars WHERE owner = ? ORDER BY name, id;`,
		convertToDB_UUID(owner),
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	return scanGrammars(rows)
}

func (repo *GrammarsDB) Update(ctx context.Context, id uuid.UUID, g dao.Grammar) (dao.Grammar, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE grammars SET id=?, owner=?, name=?, source=?, ast=?, modified=? WHERE id=?;`,
		convertToDB_UUID(g.ID),
		convertToDB_UUID(g.Owner),
		g.Name,
		g.Source,
		convertToDB_Grammar(g.AST),
		convertToDB_Time(time.Now()),
		convertToDB_UUID(id),
	)
	if err := requireAffected(res, err); err != nil {
		return dao.Grammar{}, err
	}

	return repo.GetByID(ctx, g.ID)
}

func (repo *GrammarsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT `+grammarColumns+` FROM grammars WHERE id = ?;`, convertToDB_UUID(id))
	return scanGrammar(row)
}

func (repo *GrammarsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM grammars WHERE id = ?;`, convertToDB_UUID(id))
	if err := requireAffected(res, err); err != nil {
		return curVal, err
	}

	return curVal, nil
}

func (repo *GrammarsDB) Close() error {
	return repo.db.Close()
}

func scanGrammars(rows *sql.Rows) ([]dao.Grammar, error) {
	var all []dao.Grammar

	for rows.Next() {
		g, err := scanGrammar(rows)
		if err != nil {
			return all, err
		}
		all = append(all, g)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

// scanGrammar reads a row of grammarColumns.
func scanGrammar(row scanner) (dao.Grammar, error) {
	var g dao.Grammar
	var id string
	var owner string
	var ast string
	var created int64
	var modified int64

	err := row.Scan(
		&id,
		&owner,
		&g.Name,
		&g.Source,
		&ast,
		&created,
		&modified,
	)
	if err != nil {
		return g, wrapDBError(err)
	}

	err = convertFromDB_UUID(id, &g.ID)
	if err != nil {
		return g, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
	}
	err = convertFromDB_UUID(owner, &g.Owner)
	if err != nil {
		return g, fmt.Errorf("stored owner ID %q is invalid: %w", owner, err)
	}
	err = convertFromDB_Grammar(ast, &g.AST)
	if err != nil {
		return g, fmt.Errorf("stored AST of grammar %q is invalid: %w", id, err)
	}
	err = convertFromDB_Time(created, &g.Created)
	if err != nil {
		return g, fmt.Errorf("stored created time %d is invalid: %w", created, err)
	}
	err = convertFromDB_Time(modified, &g.Modified)
	if err != nil {
		return g, fmt.Errorf("stored modified time %d is invalid: %w", modified, err)
	}

	return g, nil
}
