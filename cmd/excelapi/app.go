// Command excelapi runs the HTTP surface over internal/httpapi, mirroring
// App.go's RunApp/HandleExitError split between process wiring and the
// testable exit-code mapping.
package main

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.etcd.io/bbolt"

	"github.com/gocells/spreadsheet/internal/httpapi"
)

const exitCodeMainError = 1

const listenAddr = ":8080"

// databaseFilepathEnv names the environment variable runApp reads the bbolt
// database path from, matching App.go's DATABASE_FILEPATH convention. An
// empty value disables persistence.
const databaseFilepathEnv = "DATABASE_FILEPATH"

// runApp serves the app's HTTP surface on listener until the listener is
// closed (by the caller, on shutdown) or it fails outright. Taking the
// listener rather than an address lets callers bind an ephemeral port, e.g.
// via net.Listen("tcp", ":0"), and tear the server down by closing it.
func runApp(listener net.Listener) error {
	gin.SetMode(gin.ReleaseMode)

	var db *bbolt.DB
	if path := os.Getenv(databaseFilepathEnv); path != "" {
		opened, err := bbolt.Open(path, 0600, nil)
		if err != nil {
			return err
		}
		db = opened
		defer db.Close()
	}

	server := httpapi.NewServer(db)
	defer server.Close()

	return http.Serve(listener, server.Router())
}

func handleExitError(errStream io.Writer, err error) int {
	if err != nil {
		_, _ = fmt.Fprintln(errStream, err)
		return exitCodeMainError
	}
	return 0
}
