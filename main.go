package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/metcalfc/folio/internal/config"
	"github.com/metcalfc/folio/internal/library"
	"github.com/metcalfc/folio/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app is what every command works with: configuration, logger and the
// library loaded from its durable store.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	closeLog func() error
	backend  state.Backend
	store    *library.Store
}

func (a *app) open(configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if debug {
		cfg.Logging.ConsoleLogger.Level = "debug"
	}
	a.cfg = cfg

	if a.log, a.closeLog, err = cfg.Logging.Prepare(); err != nil {
		return fmt.Errorf("failed to prepare logger: %w", err)
	}

	if a.backend, err = state.Open(cfg.Library.Backend, cfg.Library.Path); err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	a.store = library.NewStore()
	if err := a.store.Load(a.backend); err != nil {
		return err
	}
	a.log.Debug("Library loaded",
		zap.String("backend", cfg.Library.Backend),
		zap.String("path", a.backend.Path()),
		zap.Int("books", a.store.Len()),
	)
	return nil
}

func (a *app) save() error {
	if err := a.store.Save(a.backend); err != nil {
		return err
	}
	a.log.Debug("Library saved", zap.Int("books", a.store.Len()))
	return nil
}

func (a *app) close() error {
	var err error
	if a.backend != nil {
		err = multierr.Append(err, a.backend.Close())
		a.backend = nil
	}
	if a.log != nil {
		// Sync fails on terminals, there is nothing to report.
		_ = a.log.Sync()
	}
	if a.closeLog != nil {
		if er := a.closeLog(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close log file: %w", er))
		}
		a.closeLog = nil
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	root := &cobra.Command{
		Use:   "folio",
		Short: "A local e-book library and reader",
		Long: `folio keeps a library of ePub, PDF and Markdown books on this machine.

Imported files are converted to plain text once, then read page by page in
the terminal. Reading progress is remembered between sessions.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(configPath, debug)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default: "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug messages to the console")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newReadCmd(a),
		newProgressCmd(a),
		newRemoveCmd(a),
		newExportCmd(a),
		newInspectCmd(a),
	)
	return root
}

func run(args []string, stdout, stderr io.Writer) (err error) {
	a := &app{}
	defer func() {
		err = multierr.Append(err, a.close())
	}()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
