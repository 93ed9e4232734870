package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/orderlygame/orderly/internal/authoring"
	"github.com/orderlygame/orderly/internal/daily"
	"github.com/orderlygame/orderly/internal/seed"
)

func (a *app) dayCmd() *cobra.Command {
	var tmr bool
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show the current puzzle day and time until the next one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days := daily.NewResolver(a.cfg.Epoch, a.clock)
			day := days.Today(daily.Overrides{Tomorrow: tmr})
			fmt.Fprintln(cmd.OutOrStdout(), renderDay(day, daily.FormatRemaining(days.UntilNext())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&tmr, "tmr", false, "show tomorrow's day number")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled puzzles as seen by --as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.svc.List(cmd.Context(), a.author)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderListing(l))
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a puzzle after the last scheduled day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			author, err := a.requireAuthor()
			if err != nil {
				return err
			}
			rec, err := readRecord(cmd, file)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			v, err := a.version(ctx)
			if err != nil {
				return err
			}
			rec.Author = ""
			saved, nv, err := a.svc.Add(ctx, v, rec, author)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDone(fmt.Sprintf("added day %d", saved.Day), nv))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "puzzle JSON file (- for stdin)")
	a.addVersionFlag(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "edit DAY",
		Short: "Replace the content of an unpublished puzzle you wrote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDayArg(args[0])
			if err != nil {
				return err
			}
			author, err := a.requireAuthor()
			if err != nil {
				return err
			}
			rec, err := readRecord(cmd, file)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			v, err := a.version(ctx)
			if err != nil {
				return err
			}
			_, nv, err := a.svc.Edit(ctx, v, day, rec, author)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDone(fmt.Sprintf("edited day %d", day), nv))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "puzzle JSON file (- for stdin)")
	a.addVersionFlag(cmd)
	return cmd
}

func (a *app) moveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move DAY up|down",
		Short: "Swap a puzzle with its neighbour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDayArg(args[0])
			if err != nil {
				return err
			}
			dir, err := authoring.ParseDirection(args[1])
			if err != nil {
				return err
			}
			author, err := a.requireAuthor()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			v, err := a.version(ctx)
			if err != nil {
				return err
			}
			nv, err := a.svc.Move(ctx, v, day, dir, author)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDone(fmt.Sprintf("moved day %d %s", day, dir), nv))
			return nil
		},
	}
	a.addVersionFlag(cmd)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete DAY",
		Short: "Delete a puzzle and pull later days forward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDayArg(args[0])
			if err != nil {
				return err
			}
			author, err := a.requireAuthor()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			v, err := a.version(ctx)
			if err != nil {
				return err
			}
			nv, err := a.svc.Delete(ctx, v, day, author)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDone(fmt.Sprintf("deleted day %d", day), nv))
			return nil
		},
	}
	a.addVersionFlag(cmd)
	return cmd
}

func (a *app) uploadCmd() *cobra.Command {
	var defaultAuthor string
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Replace the whole schedule with the puzzles in FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			recs, err := seed.Parse(raw)
			if err != nil {
				return err
			}
			nv, err := a.svc.Upload(cmd.Context(), recs, defaultAuthor)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDone(fmt.Sprintf("uploaded %d puzzles", len(recs)), nv))
			return nil
		},
	}
	cmd.Flags().StringVar(&defaultAuthor, "default-author", authoring.DefaultAuthor, "author for puzzles that name none")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a line whenever the repository version changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			v, err := a.svc.Version(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderDone("watching", v))
			a.svc.Watch(ctx, interval, v, func(nv int64) {
				fmt.Fprintln(out, renderChange(nv))
			})
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")
	return cmd
}

func (a *app) testLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "testlink DAY",
		Short: "Print the preview link for a puzzle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDayArg(args[0])
			if err != nil {
				return err
			}
			l, err := a.svc.List(cmd.Context(), a.author)
			if err != nil {
				return err
			}
			for _, e := range l.Entries {
				if e.Day != day {
					continue
				}
				if e.Hidden {
					return fmt.Errorf("day %d belongs to %s and is not published yet", day, e.Author)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "?test="+e.TestLink)
				return nil
			}
			return fmt.Errorf("day %d: no such puzzle", day)
		},
	}
}

// execute runs root with args; tests use it with a cancellable context.
func execute(ctx context.Context, root *cobra.Command, args ...string) error {
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
