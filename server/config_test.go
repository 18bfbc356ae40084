package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_ParseDBConnString(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    Database
		expectErr bool
	}{
		{name: "inmem", input: "inmem", expect: Database{Type: DatabaseInMemory}},
		{name: "inmem any case", input: "INMEM", expect: Database{Type: DatabaseInMemory}},
		{name: "sqlite", input: "sqlite:/var/remora", expect: Database{Type: DatabaseSQLite, DataDir: "/var/remora"}},
		{name: "sqlite with spaces", input: " sqlite : data ", expect: Database{Type: DatabaseSQLite, DataDir: "data"}},
		{name: "sqlite without dir", input: "sqlite", expectErr: true},
		{name: "inmem with params", input: "inmem:foo", expectErr: true},
		{name: "none", input: "none", expectErr: true},
		{name: "unknown engine", input: "postgres:db", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ParseDBConnString(tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_ParseDBType(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    DBType
		expectErr string
	}{
		{name: "sqlite", input: "SQLite", expect: DatabaseSQLite},
		{name: "inmem", input: "inmem", expect: DatabaseInMemory},
		{name: "unknown lists engines in order", input: "bolt", expect: DatabaseNone, expectErr: `DB type not one of 'inmem', 'sqlite': "bolt"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ParseDBType(tc.input)

			assert.Equal(tc.expect, actual)
			if tc.expectErr != "" {
				assert.EqualError(err, tc.expectErr)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func Test_Config_FillDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{}.FillDefaults()

	assert.NoError(cfg.Validate())
	assert.Equal(Database{Type: DatabaseInMemory}, cfg.DB)
	assert.Equal(time.Second, cfg.UnauthDelay())
	assert.Equal("admin", cfg.AdminUsername)
	assert.Equal("password", cfg.AdminPassword)
}

func Test_Config_Validate(t *testing.T) {
	valid := Config{}.FillDefaults()

	testCases := []struct {
		name   string
		modify func(cfg *Config)
	}{
		{name: "short secret", modify: func(cfg *Config) { cfg.TokenSecret = []byte("short") }},
		{name: "long secret", modify: func(cfg *Config) { cfg.TokenSecret = make([]byte, MaxSecretSize+1) }},
		{name: "sqlite without dir", modify: func(cfg *Config) { cfg.DB = Database{Type: DatabaseSQLite} }},
		{name: "none DB", modify: func(cfg *Config) { cfg.DB = Database{Type: DatabaseNone} }},
		{name: "password cost too low", modify: func(cfg *Config) { cfg.PasswordCost = 1 }},
		{name: "password cost too high", modify: func(cfg *Config) { cfg.PasswordCost = 99 }},
		{name: "empty admin", modify: func(cfg *Config) { cfg.AdminUsername = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func Test_Config_UnauthDelay(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(time.Duration(0), Config{UnauthDelayMillis: -1}.UnauthDelay())
	assert.Equal(250*time.Millisecond, Config{UnauthDelayMillis: 250}.UnauthDelay())
}
