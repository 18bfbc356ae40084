package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/google/uuid"
)

// userColumns are written by Create. Reads select them plus the number of
// grammars the user owns.
const userColumns = `id, username, password, role, email, created, modified, last_logout_time, last_login_time`

const selectUsers = `SELECT u.id, u.username, u.password, u.role, u.email, u.created, u.modified, u.last_logout_time, u.last_login_time,
	(SELECT COUNT(*) FROM grammars g WHERE g.owner = u.id)
	FROM users u`

type UsersDB struct {
	db *sql.DB
}

func (repo *UsersDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		email TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		last_logout_time INTEGER NOT NULL,
		last_login_time INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (repo *UsersDB) Create(ctx context.Context, user dao.User) (dao.User, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := convertToDB_Time(time.Now())
	_, err = repo.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		convertToDB_UUID(id),
		user.Username,
		user.Password,
		convertToDB_Role(user.Role),
		convertToDB_Email(user.Email),
		now,
		now,
		now,
		convertToDB_Time(time.Time{}),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, id)
}

func (repo *UsersDB) GetAll(ctx context.Context) ([]dao.User, error) {
	rows, err := repo.db.QueryContext(ctx, selectUsers+` ORDER BY u.username;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.User
	for rows.Next() {
		var r userRow
		if err := r.scan(rows); err != nil {
			return all, err
		}
		u, err := r.user()
		if err != nil {
			return all, err
		}
		all = append(all, u)
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

// Update replaces the user with ID id. Created and Grammars are not written.
// Grammars owned by the user follow it to a new ID.
func (repo *UsersDB) Update(ctx context.Context, id uuid.UUID, user dao.User) (dao.User, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET id=?, username=?, password=?, role=?, email=?, last_logout_time=?, last_login_time=?, modified=? WHERE id=?;`,
		convertToDB_UUID(user.ID),
		user.Username,
		user.Password,
		convertToDB_Role(user.Role),
		convertToDB_Email(user.Email),
		convertToDB_Time(user.LastLogoutTime),
		convertToDB_Time(user.LastLoginTime),
		convertToDB_Time(time.Now()),
		convertToDB_UUID(id),
	)
	if err := requireAffected(res, err); err != nil {
		return dao.User{}, err
	}

	return repo.GetByID(ctx, user.ID)
}

func (repo *UsersDB) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	return repo.getOne(ctx, `u.username = ?`, username)
}

func (repo *UsersDB) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	return repo.getOne(ctx, `u.id = ?`, convertToDB_UUID(id))
}

// Delete removes the user with ID id along with every grammar it owns. The
// returned user's Grammars is the number of grammars removed.
func (repo *UsersDB) Delete(ctx context.Context, id uuid.UUID) (dao.User, error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	defer tx.Rollback()

	var r userRow
	if err := r.scan(tx.QueryRowContext(ctx, selectUsers+` WHERE u.id = ?;`, convertToDB_UUID(id))); err != nil {
		return dao.User{}, err
	}
	deleted, err := r.user()
	if err != nil {
		return dao.User{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM grammars WHERE owner = ?;`, convertToDB_UUID(id)); err != nil {
		return deleted, wrapDBError(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?;`, convertToDB_UUID(id))
	if err := requireAffected(res, err); err != nil {
		return deleted, err
	}

	if err := tx.Commit(); err != nil {
		return deleted, wrapDBError(err)
	}
	return deleted, nil
}

func (repo *UsersDB) Close() error {
	return repo.db.Close()
}

func (repo *UsersDB) getOne(ctx context.Context, where string, arg interface{}) (dao.User, error) {
	var r userRow
	if err := r.scan(repo.db.QueryRowContext(ctx, selectUsers+` WHERE `+where+`;`, arg)); err != nil {
		return dao.User{}, err
	}
	return r.user()
}

// requireAffected gives the error of an UPDATE or DELETE, which is
// dao.ErrNotFound if it matched no rows.
func requireAffected(res sql.Result, err error) error {
	if err != nil {
		return wrapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err)
	}
	if n < 1 {
		return dao.ErrNotFound
	}
	return nil
}

// scanner is a *sql.Row or *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// userRow is a row of selectUsers as stored.
type userRow struct {
	id       string
	username string
	password string
	role     string
	email    string
	created  int64
	modified int64
	logout   int64
	login    int64
	grammars int
}

func (r *userRow) scan(row scanner) error {
	err := row.Scan(
		&r.id,
		&r.username,
		&r.password,
		&r.role,
		&r.email,
		&r.created,
		&r.modified,
		&r.logout,
		&r.login,
		&r.grammars,
	)
	return wrapDBError(err)
}

func (r userRow) user() (dao.User, error) {
	u := dao.User{
		Username: r.username,
		Password: r.password,
		Grammars: r.grammars,
	}

	if err := convertFromDB_UUID(r.id, &u.ID); err != nil {
		return u, fmt.Errorf("stored UUID %q is invalid: %w", r.id, err)
	}
	if err := convertFromDB_Role(r.role, &u.Role); err != nil {
		return u, fmt.Errorf("stored role %q is invalid: %w", r.role, err)
	}
	if err := convertFromDB_Email(r.email, &u.Email); err != nil {
		return u, fmt.Errorf("stored email %q is invalid: %w", r.email, err)
	}

	times := []struct {
		col string
		val int64
		dst *time.Time
	}{
		{"created", r.created, &u.Created},
		{"modified", r.modified, &u.Modified},
		{"last_logout_time", r.logout, &u.LastLogoutTime},
		{"last_login_time", r.login, &u.LastLoginTime},
	}
	for _, t := range times {
		if err := convertFromDB_Time(t.val, t.dst); err != nil {
			return u, fmt.Errorf("stored %s %d is invalid: %w", t.col, t.val, err)
		}
	}

	return u, nil
}
