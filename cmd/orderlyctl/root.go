package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/orderlygame/orderly/internal/authoring"
	"github.com/orderlygame/orderly/internal/config"
	"github.com/orderlygame/orderly/internal/daily"
	"github.com/orderlygame/orderly/internal/puzzle"
	"github.com/orderlygame/orderly/internal/repo"
)

// app carries what every command needs. Tests fill repo and clock directly;
// otherwise they are built from the environment on first use.
type app struct {
	out   io.Writer
	cfg   config.Config
	repo  repo.Repository
	clock daily.Clock

	dbPath   string
	author   string
	expected int64
	svc      *authoring.Service
}

// versionLatest means "read the current version and use it".
const versionLatest = -2

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "orderlyctl",
		Short:        "Author and schedule Orderly puzzles",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.repo != nil && a.dbPath != "" {
				return a.repo.Close()
			}
			return nil
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite path (default $DB_PATH)")
	root.PersistentFlags().StringVar(&a.author, "as", os.Getenv("ORDERLY_AUTHOR"), "author name used for ownership checks")

	root.AddCommand(
		a.dayCmd(),
		a.listCmd(),
		a.addCmd(),
		a.editCmd(),
		a.moveCmd(),
		a.deleteCmd(),
		a.uploadCmd(),
		a.watchCmd(),
		a.testLinkCmd(),
	)
	return root
}

func (a *app) setup() error {
	if a.repo == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.cfg = cfg
		zerolog.SetGlobalLevel(cfg.LogLevel)
		if a.dbPath == "" {
			a.dbPath = cfg.DBPath
		}
		if a.dbPath == "" {
			return fmt.Errorf("orderlyctl needs a persistent repository: set --db or DB_PATH")
		}
		st, err := repo.OpenSQLite(a.dbPath)
		if err != nil {
			return err
		}
		a.repo = st
	}
	a.svc = authoring.New(a.repo, daily.NewResolver(a.cfg.Epoch, a.clock))
	return nil
}

// addVersionFlag registers --expected on write commands.
func (a *app) addVersionFlag(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&a.expected, "expected", versionLatest, "repository version the change is based on (default: current)")
}

func (a *app) version(ctx context.Context) (int64, error) {
	if a.expected != versionLatest {
		return a.expected, nil
	}
	return a.svc.Version(ctx)
}

func (a *app) requireAuthor() (string, error) {
	if a.author == "" {
		return "", fmt.Errorf("--as (or ORDERLY_AUTHOR) is required for this command")
	}
	return a.author, nil
}

func parseDayArg(s string) (int, error) {
	d, err := strconv.Atoi(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("day must be a positive integer, got %q", s)
	}
	return d, nil
}

// readRecord decodes one puzzle from path ("-" for stdin).
func readRecord(cmd *cobra.Command, path string) (puzzle.Record, error) {
	var r puzzle.Record
	raw, err := readInput(cmd, path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("decode %s: %w", path, err)
	}
	return r, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
