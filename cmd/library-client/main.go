package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pribylovaa/go-library-client/internal/app"
	"github.com/pribylovaa/go-library-client/internal/config"
	apierrors "github.com/pribylovaa/go-library-client/internal/errors"
	"github.com/pribylovaa/go-library-client/internal/models"
	"github.com/pribylovaa/go-library-client/internal/navigation"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const usage = `usage: library-client [-config path] <command> [args]

commands:
  login -email E -password P   log in and store the token
  register -email E -password P [-name N -address A -phone T]
  logout                       clear the stored session
  whoami                       print the current session
  routes                       list client routes and their requirements
  open <path>                  navigate to a client route
  get <path>                   authorized GET against the backend
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("library-client", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() { fmt.Fprint(stderr, usage) }

	var configPath string
	fset.StringVar(&configPath, "config", "", "path to config file")
	if err := fset.Parse(args); err != nil {
		return 2
	}
	if fset.NArg() == 0 {
		fset.Usage()
		return 2
	}

	// .env не обязателен: без него работаем на системном окружении.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "load .env: %v\n", err)
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	log := setupLogger(cfg.Env, stderr)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Error("app_init_failed", slog.String("err", err.Error()))
		return 1
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			log.Warn("app_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	out, err := dispatch(ctx, a, fset.Arg(0), fset.Args()[1:])
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		log.Debug("command_failed", slog.String("cmd", fset.Arg(0)), slog.String("err", err.Error()))
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}

	if out != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Error("output_encode_failed", slog.String("err", err.Error()))
			return 1
		}
	}

	return 0
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, a *app.App, cmd string, args []string) (any, error) {
	switch cmd {
	case "login":
		flags := subcommand("login")
		email := flags.String("email", "", "account e-mail")
		password := flags.String("password", "", "account password")
		if err := flags.Parse(args); err != nil || *email == "" || *password == "" {
			return nil, errUsage
		}
		if _, err := a.Login(ctx, *email, *password); err != nil {
			return nil, err
		}
		return newWhoami(a), nil

	case "register":
		flags := subcommand("register")
		var in models.RegisterRequest
		flags.StringVar(&in.Email, "email", "", "account e-mail")
		flags.StringVar(&in.Password, "password", "", "account password")
		flags.StringVar(&in.FullName, "name", "", "full name")
		flags.StringVar(&in.Address, "address", "", "postal address")
		flags.StringVar(&in.PhoneNumber, "phone", "", "phone number")
		if err := flags.Parse(args); err != nil || in.Email == "" || in.Password == "" {
			return nil, errUsage
		}
		out, err := a.Register(ctx, in)
		if err != nil {
			return nil, err
		}
		return out, nil

	case "logout":
		if err := a.Logout(ctx); err != nil {
			return nil, err
		}
		return a.Router.Current(), nil

	case "whoami":
		return newWhoami(a), nil

	case "routes":
		return a.Router.Routes(), nil

	case "open":
		if len(args) != 1 {
			return nil, errUsage
		}
		return a.Open(ctx, args[0])

	case "get":
		if len(args) != 1 {
			return nil, errUsage
		}
		body, err := a.Get(ctx, args[0])
		if err != nil {
			return nil, err
		}
		return body, nil

	default:
		return nil, errUsage
	}
}

// whoami - состояние сессии для вывода.
type whoami struct {
	UserID        string     `json:"user_id"`
	Roles         []string   `json:"roles"`
	Authenticated bool       `json:"authenticated"`
	Admin         bool       `json:"admin"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	// Expired - по локальным часам; сессию завершает только 401 от бэкенда.
	Expired bool `json:"expired"`
}

func newWhoami(a *app.App) whoami {
	snap := a.Session.Snapshot()
	out := whoami{
		UserID:        snap.UserID,
		Roles:         snap.Roles,
		Authenticated: snap.Authenticated(),
		Admin:         snap.HasRole(navigation.RoleAdmin),
		Expired:       a.Session.Expired(),
	}
	if exp, ok := a.Session.ExpiresAt(); ok {
		exp = exp.UTC()
		out.ExpiresAt = &exp
	}

	return out
}

func subcommand(name string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	return flags
}

// msgRelogin - подсказка, когда бэкенд отверг токен без объяснений.
const msgRelogin = "Your session has expired. Please log in again."

// userMessage - текст ошибки для пользователя. Ошибки бэкенда уже
// нормализованы, остальные показываются как есть.
func userMessage(err error) string {
	var apiErr *apierrors.Error
	if errors.As(err, &apiErr) {
		if apierrors.IsUnauthorized(err) && apiErr.Message == apierrors.GenericMessage {
			return msgRelogin
		}
		return apiErr.Message
	}

	return err.Error()
}

func setupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
