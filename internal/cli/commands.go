package cli

import (
	"errors"
	"fmt"
	"strconv"

	"example.com/timeclock/internal/clock"
	"example.com/timeclock/internal/report"
	"example.com/timeclock/internal/store"
	"github.com/spf13/cobra"
)

func newInCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "in",
		Short: "Clock in",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.tracker.ClockIn()
			switch {
			case errors.Is(err, clock.ErrAlreadyClockedIn):
				fmt.Fprintln(a.out, a.style.errorf("Error: already clocked in."))
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintln(a.out, "Clocked in.")
			return nil
		},
	}
}

func newOutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "out",
		Short: "Clock out",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.tracker.ClockOut()
			switch {
			case errors.Is(err, clock.ErrNotClockedIn):
				fmt.Fprintln(a.out, a.style.errorf("Error: cannot clock out unless clocked in."))
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintln(a.out, "Clocked out.")
			return nil
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether you are clocked in and for how long",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.tracker.Status()
			if err != nil {
				return err
			}

			if !st.HasEntries {
				fmt.Fprintln(a.out, "No entries yet. You have not clocked in or out.")
				return nil
			}
			stamp := st.Last.Timestamp.Format(store.TimestampLayout)
			if st.ClockedIn {
				fmt.Fprintf(a.out, "Status: %s\n", a.style.clockedIn("CLOCKED IN"))
				fmt.Fprintf(a.out, "Started: %s\n", stamp)
				fmt.Fprintf(a.out, "Elapsed: %s\n", clock.FormatElapsed(st.Elapsed))
				return nil
			}
			fmt.Fprintf(a.out, "Status: %s\n", a.style.clockedOut("CLOCKED OUT"))
			fmt.Fprintf(a.out, "Last clock-out: %s\n", stamp)
			return nil
		},
	}
}

func newWeeklyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "weekly",
		Short: "Show hours for the most recent weeks",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printWeekly(a.cfg.Report.WeeklyLimit)
		},
	}
}

func newAllCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Show hours for every week in the log",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printWeekly(0)
		},
	}
}

func (a *app) printWeekly(limit int) error {
	entries, err := a.store.ReadEntries()
	if err != nil {
		return err
	}
	totals := report.Weekly(entries, a.tracker.Now())
	a.log.Debug("weekly totals", "entries", len(entries), "weeks", len(totals), "limit", limit)
	return report.Render(a.out, totals, limit)
}

func newClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear n",
		Short: "Remove the last n log lines",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || !isDigits(args[0]) {
				return &usageError{line: clearUsageLine}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return &usageError{line: clearUsageLine}
			}

			res, err := a.store.ClearLast(n)
			switch {
			case errors.Is(err, store.ErrNoData):
				fmt.Fprintln(a.out, a.style.errorf("Error: no data file to clear."))
				return nil
			case err != nil:
				return err
			}

			switch {
			case res.DeletedFile:
				fmt.Fprintln(a.out, "Cleared entire file.")
			case res.Removed == 0:
				fmt.Fprintln(a.out, "Nothing to clear.")
			case res.Removed == 1:
				fmt.Fprintln(a.out, "Cleared last 1 entry.")
			default:
				fmt.Fprintf(a.out, "Cleared last %d entries.\n", res.Removed)
			}
			a.log.Info("cleared log lines", "file", a.store.Path(), "removed", res.Removed, "deleted", res.DeletedFile)
			return nil
		},
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
