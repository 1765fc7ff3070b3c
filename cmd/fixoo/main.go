// Command fixoo is the local Fixoo client: accounts, orders and media kept in
// a JSON storage file, plus admin commands against a fixoo-api server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/fixoo-app/fixoo/internal/adminapi"
	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/session"
	"github.com/fixoo-app/fixoo/internal/store"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errNotLoggedIn = errors.New("not logged in (run: fixoo login)")

// cfgDir follows XDG: $XDG_CONFIG_HOME/fixoo or ~/.config/fixoo.
func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "fixoo")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fixoo")
}

func storagePath() string { return filepath.Join(cfgDir(), "storage.json") }

// app holds everything a command needs.
type app struct {
	out      io.Writer
	log      *zap.Logger
	kv       kv.Store
	store    *store.Store
	sessions *session.Store
	apiURL   string
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) adminClient() *adminapi.Client {
	return adminapi.New(a.apiURL,
		adminapi.WithSession(adminapi.NewSession(a.kv, a.log)),
		adminapi.WithLogger(a.log),
	)
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"version": {"", func(_ context.Context, a *app, _ []string) error {
		_, err := fmt.Fprintf(a.out, "fixoo %s (%s)\n", version, buildDate)
		return err
	}},
	"register":       {"-phone P -password P -type client|specialist [-name ...]", cmdRegister},
	"login":          {"-phone P [-password P]", cmdLogin},
	"logout":         {"", cmdLogout},
	"whoami":         {"", cmdWhoami},
	"specialists":    {"[-available]", cmdSpecialists},
	"order-create":   {"-specialist ID -description D [-location L]", cmdOrderCreate},
	"orders":         {"", cmdOrders},
	"pending":        {"", cmdPending},
	"order-status":   {"-id ID -status accepted|rejected|completed", cmdOrderStatus},
	"profile":        {"[-name N] [-surname S] [-city C] ...", cmdProfile},
	"availability":   {"-on=true|false", cmdAvailability},
	"delete-account": {"", cmdDeleteAccount},
	"media-add":      {"-file PATH [-name N]", cmdMediaAdd},
	"media-list":     {"", cmdMediaList},
	"media-rm":       {"-id ID", cmdMediaRemove},

	"admin-login":        {"-u USER -p PASSWORD", cmdAdminLogin},
	"admin-logout":       {"", cmdAdminLogout},
	"admin-users":        {"[-type client|specialist]", cmdAdminUsers},
	"admin-orders":       {"[-status S] [-client ID] [-specialist ID]", cmdAdminOrders},
	"admin-order-status": {"-id ID -status S", cmdAdminOrderStatus},
	"admin-stats":        {"", cmdAdminStats},
}

var commandOrder = []string{
	"version", "register", "login", "logout", "whoami", "specialists",
	"order-create", "orders", "pending", "order-status", "profile",
	"availability", "delete-account", "media-add", "media-list", "media-rm",
	"admin-login", "admin-logout", "admin-users", "admin-orders",
	"admin-order-status", "admin-stats",
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "fixoo CLI\nUsage:\n  fixoo [-data file] [-api URL] [-v] <cmd> [args]\n\nCommands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-19s %s\n", name, commands[name].usage)
	}
}

// run parses global flags and dispatches one subcommand.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fixoo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	data := fs.String("data", storagePath(), "storage file")
	api := fs.String("api", envOr("FIXOO_API", "http://localhost:8080"), "fixoo-api base URL")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		usage(stderr)
		return flag.ErrHelp
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		usage(stderr)
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}

	log := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	defer func() { _ = log.Sync() }()

	kvs := kv.NewFile(*data)
	st := store.New(kvs, log.Named("store"))
	a := &app{
		out:      stdout,
		log:      log,
		kv:       kvs,
		store:    st,
		sessions: session.New(st, log.Named("session")),
		apiURL:   *api,
	}
	return cmd.run(ctx, a, fs.Args()[1:])
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
