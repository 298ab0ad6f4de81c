package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klokku/calmcash/internal/cli"
	"github.com/klokku/calmcash/internal/config"
	"github.com/klokku/calmcash/pkg/auth"
	"github.com/klokku/calmcash/pkg/dashboard"
	"github.com/klokku/calmcash/pkg/kv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	defaultConfigPath = "./config/calmcash.yaml"
	// ThemeKey is the key-value entry holding the preferred colour theme.
	ThemeKey = "calm_cash_theme"
)

// Application wires configuration, the session store and the command tree.
type Application struct {
	configPath string
	in         io.Reader
	out        io.Writer
	errOut     io.Writer

	build  func(cfg config.Application) (*Dependencies, error)
	deps   *Dependencies
	render *cli.Renderer
}

// NewApplication constructs the CLI application, ready to Run().
func NewApplication() *Application {
	return &Application{
		configPath: defaultConfigPath,
		in:         os.Stdin,
		out:        os.Stdout,
		errOut:     os.Stderr,
		build:      BuildDependencies,
	}
}

// Run executes the command selected by args. Errors are printed for the user
// before being returned.
func (a *Application) Run(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(ctx)
	if a.deps != nil {
		if closeErr := a.deps.Close(); closeErr != nil {
			log.Warnf("unable to close session store: %v", closeErr)
		}
	}
	if err != nil {
		msg := dashboard.Message(err)
		if a.render != nil {
			msg = a.render.Error(msg)
		}
		fmt.Fprintln(a.errOut, msg)
	}
	return err
}

func (a *Application) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "calmcash",
		Short:         "Calm Cash budgeting client",
		Long:          "Sign in to Calm Cash and manage budgets, categories, transactions and alerts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", a.configPath, "Path to the YAML config file")

	root.AddCommand(
		a.authCommand(auth.ModeLogin),
		a.authCommand(auth.ModeRegister),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.categoriesCommand(),
		a.budgetsCommand(),
		a.limitsCommand(),
		a.summaryCommand(),
		a.transactionsCommand(),
		a.alertsCommand(),
		a.themeCommand(),
	)
	return root
}

// setup builds the dependencies once and restores the persisted session.
func (a *Application) setup(ctx context.Context) error {
	if a.deps == nil {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		applyLogLevel(cfg.Log.Level)

		deps, err := a.build(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		a.deps = deps
	}

	a.deps.Session.Load(ctx)
	a.render = cli.NewRenderer(a.theme(ctx))
	return nil
}

// applyLogLevel honours log.level unless LOG_LEVEL already set the level.
func applyLogLevel(level string) {
	if os.Getenv("LOG_LEVEL") != "" || level == "" {
		return
	}
	logrusLevel, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("ignoring invalid log.level %q", level)
		return
	}
	log.SetLevel(logrusLevel)
}

func (a *Application) theme(ctx context.Context) cli.Theme {
	raw, err := a.deps.Store.Get(ctx, ThemeKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Warnf("unable to read theme: %v", err)
		}
		return cli.ThemeLight
	}
	theme, err := cli.ParseTheme(raw)
	if err != nil {
		return cli.ThemeLight
	}
	return theme
}

func (a *Application) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
