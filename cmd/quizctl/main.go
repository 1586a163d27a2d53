package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/database"
	"github.com/quizentia/quizentia-web/internal/logger"
	"github.com/quizentia/quizentia-web/internal/quizapi"
	"github.com/quizentia/quizentia-web/internal/service"
	"github.com/quizentia/quizentia-web/internal/storage"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

const usage = `Usage: quizctl [flags] <command> [args]

Commands:
  weeks                          List weeks with quizzes
  week-quizzes <week_id>         List the quizzes of a week
  questions                      List questions (--week or --quiz, optional --search)
  delete-question <quiz_id> <i>  Delete question i of a quiz
  delete-quiz <quiz_id>          Delete a whole quiz
  logout                         Forget the stored admin credential

Flags:
`

type options struct {
	username string
	weekID   string
	quizID   int
	search   string
	yes      bool
}

func main() {
	var opts options
	flag.StringVarP(&opts.username, "username", "u", os.Getenv("QUIZCTL_USERNAME"), "Admin username")
	flag.StringVarP(&opts.weekID, "week", "w", "", "Week ID for the questions command")
	flag.IntVarP(&opts.quizID, "quiz", "q", 0, "Quiz ID for the questions command")
	flag.StringVarP(&opts.search, "search", "s", "", "Filter questions by text or quiz title")
	flag.BoolVarP(&opts.yes, "yes", "y", false, "Do not ask before deleting")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// stdout carries command output only.
	log := logger.New(os.Stderr, cfg.LogLevel, "pretty")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Open Client Storage ───────────────────────────────────────────
	// A persistent driver keeps the credential between invocations.
	base, closeStore, err := database.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open client storage")
	}
	defer closeStore()

	backend := quizapi.NewClient(cfg.QuizAPIURL, cfg.QuizAPITimeout, log)
	app := &cli{
		admin: service.NewAdminService(backend, cfg.WeeklyMaxWeeks, log),
		opts:  opts,
		in:    bufio.NewReader(os.Stdin),
	}

	if app.opts.username == "" {
		app.opts.username = app.prompt("Username: ")
	}
	app.store = storage.Scope(base, config.CacheKey.ClientNamespace("quizctl:"+app.opts.username))

	if err := app.run(ctx, args[0], args[1:]); err != nil {
		fail(err)
	}
}

// cli runs one admin command against the quiz backend.
type cli struct {
	admin *service.AdminService
	store storage.Store
	opts  options
	in    *bufio.Reader
}

// ensureLogin reuses a stored credential or asks for the password.
func (a *cli) ensureLogin(ctx context.Context) error {
	ok, err := a.admin.IsAuthenticated(ctx, a.store)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	cred, err := a.admin.Login(ctx, a.store, a.opts.username, string(raw))
	if err != nil {
		return err
	}
	color.New(color.FgHiBlack).Fprintf(os.Stderr, "Logged in until %s\n", cred.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (a *cli) prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *cli) confirm(question string) bool {
	if a.opts.yes {
		return true
	}
	answer := strings.ToLower(a.prompt(color.YellowString(question) + " [y/N]: "))
	return answer == "y" || answer == "yes"
}

func fail(err error) {
	var (
		authErr       *service.AuthError
		validationErr *service.ValidationError
	)

	switch {
	case errors.As(err, &authErr):
		color.Red("Login failed: %s", authErr.Detail)
	case errors.As(err, &validationErr):
		color.Red("Invalid question:")
		for _, msg := range validationErr.Messages {
			color.Red("  - %s", msg)
		}
	case errors.Is(err, service.ErrSessionExpired):
		color.Red("Your session has expired. Please log in again.")
	case errors.Is(err, service.ErrBackendUnavailable), errors.Is(err, service.ErrAdminUnavailable):
		msg := "The quiz service is unavailable. Please try again later."
		if detail := quizapi.DetailOf(err); detail != "" {
			msg += " (" + detail + ")"
		}
		color.Red("%s", msg)
	default:
		color.Red("Error: %v", err)
	}
	os.Exit(1)
}
