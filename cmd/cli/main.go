// Command vn is a command-line client for the voice notes backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/and161185/voicenotes/internal/apiclient"
	"github.com/and161185/voicenotes/internal/errs"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// .env is optional; the environment wins
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fail(os.Stderr, err)
		os.Exit(1)
	}
}

// ---- utils ----

// readAll reads a file, or stdin when p is "-".
func readAll(stdin io.Reader, p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(p)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(w io.Writer, err error) {
	switch {
	case apiclient.IsSessionExpired(err):
		fmt.Fprintln(w, "session expired, run 'vn login' again")
	case errors.Is(err, errs.ErrUnauthorized):
		fmt.Fprintf(w, "%v\nnot logged in? run 'vn login'\n", err)
	default:
		fmt.Fprintln(w, err)
	}
}
