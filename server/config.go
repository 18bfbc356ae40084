package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dekarrin/remora/internal/util"
	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/dao/inmem"
	"github.com/dekarrin/remora/server/dao/sqlite"
	"golang.org/x/crypto/bcrypt"
)

// DBType is the engine half of a DB connection string.
type DBType string

func (dbt DBType) String() string {
	return string(dbt)
}

const (
	DatabaseNone     DBType = "none"
	DatabaseSQLite   DBType = "sqlite"
	DatabaseInMemory DBType = "inmem"
)

const (
	MaxSecretSize = 64
	MinSecretSize = 32
)

const (
	defaultUnauthDelayMillis = 1000
	defaultAdminUsername     = "admin"
	defaultAdminPassword     = "password"
)

// dbEngine describes how one DBType is configured and opened.
type dbEngine struct {
	// needsDir is whether the engine keeps files in Database.DataDir.
	needsDir bool
	open     func(db Database) (dao.Store, error)
}

var dbEngines = map[DBType]dbEngine{
	DatabaseInMemory: {
		open: func(Database) (dao.Store, error) {
			return inmem.NewDatastore(), nil
		},
	},
	DatabaseSQLite: {
		needsDir: true,
		open: func(db Database) (dao.Store, error) {
			if err := os.MkdirAll(db.DataDir, 0770); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			store, err := sqlite.NewDatastore(db.DataDir)
			if err != nil {
				return nil, fmt.Errorf("initialize sqlite: %w", err)
			}
			return store, nil
		},
	},
}

func engineNames() string {
	var names []string
	for _, t := range util.OrderedKeys(dbEngines) {
		names = append(names, "'"+t.String()+"'")
	}
	return strings.Join(names, ", ")
}

// ParseDBType gives the DBType named by s, ignoring case.
func ParseDBType(s string) (DBType, error) {
	t := DBType(strings.ToLower(s))
	if _, ok := dbEngines[t]; !ok {
		return DatabaseNone, fmt.Errorf("DB type not one of %s: %q", engineNames(), s)
	}
	return t, nil
}

// Database says where the server keeps its users and grammars.
type Database struct {
	Type DBType

	// DataDir is the directory data files are kept in, for engines that use
	// one.
	DataDir string
}

// Connect opens the store the Database describes.
func (db Database) Connect() (dao.Store, error) {
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return dbEngines[db.Type].open(db)
}

// Validate returns an error if db names no usable engine or lacks what its
// engine needs.
func (db Database) Validate() error {
	eng, ok := dbEngines[db.Type]
	if !ok {
		if db.Type == DatabaseNone {
			return fmt.Errorf("'none' DB is not valid")
		}
		return fmt.Errorf("unknown database type: %q", db.Type.String())
	}
	if eng.needsDir && db.DataDir == "" {
		return fmt.Errorf("DataDir not set to path")
	}
	return nil
}

// ParseDBConnString parses a connection string of the form "ENGINE" or
// "ENGINE:DIR", such as "inmem" or "sqlite:/var/lib/remora".
func ParseDBConnString(s string) (Database, error) {
	engStr, dir, _ := strings.Cut(s, ":")
	dir = strings.TrimSpace(dir)

	if strings.EqualFold(strings.TrimSpace(engStr), DatabaseNone.String()) {
		return Database{}, fmt.Errorf("cannot specify DB engine 'none' (perhaps you wanted 'inmem'?)")
	}

	t, err := ParseDBType(strings.TrimSpace(engStr))
	if err != nil {
		return Database{}, fmt.Errorf("unsupported DB engine: %w", err)
	}

	if dbEngines[t].needsDir {
		if dir == "" {
			return Database{}, fmt.Errorf("%s DB engine requires path to data directory after ':'", t)
		}
		return Database{Type: t, DataDir: dir}, nil
	}

	if dir != "" {
		return Database{}, fmt.Errorf("unsupported param(s) for %s DB engine: %s", t, dir)
	}
	return Database{Type: t}, nil
}

// Config holds the settings of a RemoraServer. The zero value is usable once
// passed through FillDefaults.
type Config struct {
	// TokenSecret signs issued JWTs. It must be between MinSecretSize and
	// MaxSecretSize bytes.
	TokenSecret []byte

	// DB is where data is stored. Defaults to an in-memory store.
	DB Database

	// UnauthDelayMillis is how long to wait before answering a request that
	// failed authentication or authorization. Zero means one second and a
	// negative number means no wait.
	UnauthDelayMillis int

	// AdminUsername and AdminPassword are the credentials of the admin user
	// created at startup if no user with that name exists. They default to
	// "admin" and "password".
	AdminUsername string
	AdminPassword string

	// PasswordCost is the bcrypt cost of stored passwords. Zero means
	// rmsvc.DefaultPasswordCost.
	PasswordCost int
}

// UnauthDelay gives UnauthDelayMillis as a duration. A negative setting gives
// zero.
func (cfg Config) UnauthDelay() time.Duration {
	if cfg.UnauthDelayMillis < 1 {
		return 0
	}
	return time.Millisecond * time.Duration(cfg.UnauthDelayMillis)
}

// FillDefaults returns a copy of cfg with every unset field given its default.
func (cfg Config) FillDefaults() Config {
	if cfg.TokenSecret == nil {
		cfg.TokenSecret = []byte("DEFAULT_TOKEN_SECRET-DO_NOT_USE_IN_PROD!")
	}
	if cfg.DB.Type == "" || cfg.DB.Type == DatabaseNone {
		cfg.DB = Database{Type: DatabaseInMemory}
	}
	if cfg.UnauthDelayMillis == 0 {
		cfg.UnauthDelayMillis = defaultUnauthDelayMillis
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = defaultAdminUsername
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = defaultAdminPassword
	}
	return cfg
}

// Validate returns an error if any field of cfg is unusable. Unset fields are
// errors too, so call it on the result of FillDefaults.
func (cfg Config) Validate() error {
	if n := len(cfg.TokenSecret); n < MinSecretSize || n > MaxSecretSize {
		return fmt.Errorf("token secret: must be between %d and %d bytes, but is %d", MinSecretSize, MaxSecretSize, n)
	}
	if err := cfg.DB.Validate(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if cfg.PasswordCost != 0 && (cfg.PasswordCost < bcrypt.MinCost || cfg.PasswordCost > bcrypt.MaxCost) {
		return fmt.Errorf("password cost: must be between %d and %d, but is %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.PasswordCost)
	}
	if cfg.AdminUsername == "" {
		return fmt.Errorf("admin username: must not be empty")
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("admin password: must not be empty")
	}
	return nil
}
