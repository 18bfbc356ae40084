/*
Rmserver starts a remora server and begins listening for new connections.

Usage:

	rmserver [flags]
	rmserver [flags] -l [[ADDRESS]:PORT]

Once started, the remora server will listen for HTTP requests and respond to
them using REST protocol. By default, it will listen on localhost:8080. This can
be changed with the --listen/-l flag (or config via environment var). The flag
argument must be either a full address with port, such as "192.168.0.2:6001", or
just the port preceeded by a colon, such as ":6001".

If a JWT token secret is not given, one will be automatically generated. As a
consequence, in this mode of operation all tokens are rendered invalid as soon
as the server shuts down. This is suitable for testing, but must be given via
either CLI flags or environment variable if running in production.

The flags are:

	-v, --version
		Give the current version of the remora server and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment variable
		REMORA_LISTEN_ADDRESS, and if that is not given, will default to
		localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less than
		32 bytes in the secret, it will be repeated until it is. The maximum
		size is 64 bytes. If not given, will default to the value of environment
		variable REMORA_TOKEN_SECRET. If no secret is specified or an empty
		secret is given, a random secret will be automatically generated. Note
		that any tokens issued with a random secret will become invalid as soon
		as the server shuts down.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the following:
		inmem, sqlite. inmem has no further params. sqlite needs the path to the
		data directory such as sqlite:path/to/db_dir. If not given, will default
		to the value of environment variable REMORA_DATABASE. If no DB driver
		is specified or an empty one is given, an in-memory database is
		automatically selected.

	--admin USERNAME
		Create an admin user with this name at startup if it does not exist.
		Its password is taken from environment variable REMORA_ADMIN_PASSWORD
		and defaults to "password". Defaults to "admin".

	--log-level LEVEL
		Only log messages at LEVEL or above. One of debug, info, warn, or
		error. Defaults to info.

	--log-format FORMAT
		Write log messages as "plain" text or "json". Defaults to plain.
*/
package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/remora/internal/logging"
	"github.com/dekarrin/remora/internal/version"
	"github.com/dekarrin/remora/server"
	"github.com/spf13/pflag"
)

const (
	EnvListen        = "REMORA_LISTEN_ADDRESS"
	EnvSecret        = "REMORA_TOKEN_SECRET"
	EnvDB            = "REMORA_DATABASE"
	EnvAdminPassword = "REMORA_ADMIN_PASSWORD"
)

const (
	ExitSuccess = iota
	ExitUsage
	ExitStartup
	ExitServe
)

var (
	flagVersion   = pflag.BoolP("version", "v", false, "Give the current version of the remora server and then exit.")
	flagListen    = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret    = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB        = pflag.String("db", "", "Use the given DB connection string.")
	flagAdmin     = pflag.String("admin", "admin", "Create the admin user with this name at startup.")
	flagLogLevel  = pflag.String("log-level", logging.LevelInfo, "Only log messages at this level or above.")
	flagLogFormat = pflag.String("log-format", logging.FormatPlain, "Write log messages in this format (plain or json).")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (remora v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	if len(pflag.Args()) > 0 {
		usageError("Too many arguments")
	}

	log, err := logging.New(os.Stderr, *flagLogFormat, *flagLogLevel)
	if err != nil {
		usageError(err.Error())
	}

	addr, port, err := listenAddress()
	if err != nil {
		usageError(err.Error())
	}

	cfg := server.Config{
		AdminUsername: *flagAdmin,
		AdminPassword: os.Getenv(EnvAdminPassword),
	}

	dbConnStr := envOrFlag(EnvDB, "db", *flagDB)
	if dbConnStr != "" {
		cfg.DB, err = server.ParseDBConnString(dbConnStr)
		if err != nil {
			usageError(err.Error())
		}
	}

	cfg.TokenSecret, err = tokenSecret(envOrFlag(EnvSecret, "secret", *flagSecret))
	if err != nil {
		usageError(err.Error())
	}
	if cfg.TokenSecret == nil {
		// use all 64 possible bytes if doing a generated secret
		cfg.TokenSecret = make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(cfg.TokenSecret); err != nil {
			log.Error("could not generate token secret", "error", err)
			os.Exit(ExitStartup)
		}
		log.Warn("using generated token secret; all tokens issued will become invalid at shutdown")
	}

	rs, err := server.New(cfg, log)
	if err != nil {
		log.Error("could not start server", "error", err)
		os.Exit(ExitStartup)
	}
	defer rs.Close()
	log.Debug("server initialized", "db", cfg.FillDefaults().DB.Type.String())

	log.Info("starting remora server", "version", version.ServerCurrent)
	if err := rs.ServeForever(addr, port); err != nil {
		log.Error("server stopped", "error", err)
		rs.Close()
		os.Exit(ExitServe)
	}
}

// envOrFlag gives the value of the named flag if it was set and the value of
// the environment variable otherwise.
func envOrFlag(env, flagName, flagVal string) string {
	if pflag.Lookup(flagName).Changed {
		return flagVal
	}
	return os.Getenv(env)
}

func listenAddress() (addr string, port int, err error) {
	listenAddr := envOrFlag(EnvListen, "listen", *flagListen)
	if listenAddr == "" {
		return "", 0, nil
	}

	bindParts := strings.SplitN(listenAddr, ":", 2)
	if len(bindParts) != 2 {
		return "", 0, fmt.Errorf("listen address is not in ADDRESS:PORT or :PORT format")
	}

	port, err = strconv.Atoi(bindParts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%q is not a valid port number", bindParts[1])
	}

	return bindParts[0], port, nil
}

// tokenSecret stretches the given secret to the minimum size by repeating
// it. An empty secret gives nil.
func tokenSecret(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	secret := []byte(s)
	for len(secret) < server.MinSecretSize {
		doubled := make([]byte, len(secret)*2)
		copy(doubled, secret)
		copy(doubled[len(secret):], secret)
		secret = doubled
	}

	if len(secret) > server.MaxSecretSize {
		// keys would be chopped at 64, so rather than the user thinking
		// they have more security by giving a longer key, refuse to start.
		return nil, fmt.Errorf("token secret is %d bytes, but it must be <= %d bytes", len(secret), server.MaxSecretSize)
	}

	return secret, nil
}

func usageError(msg string) {
	fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", msg)
	os.Exit(ExitUsage)
}
