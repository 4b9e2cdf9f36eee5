package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/crontick/crontick/internal/crontab"
)

var (
	nextCount int
	nextFrom  string
)

// nextCmd represents the next command
var nextCmd = &cobra.Command{
	Use:   "next <expression>",
	Short: "Print upcoming occurrences of a crontab expression",
	Long: `Compute the next occurrences of a five-field crontab expression,
starting strictly after the given base time (default: now).

Example:
  crontick next -n 5 "0 3 * * Sun"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := time.Now()
		if nextFrom != "" {
			parsed, err := time.Parse(time.RFC3339, nextFrom)
			if err != nil {
				return fmt.Errorf("parse --from: %w", err)
			}
			base = parsed
		}
		return runNext(cmd.OutOrStdout(), args[0], base, nextCount)
	},
}

func init() {
	nextCmd.Flags().IntVarP(&nextCount, "count", "n", 3, "number of occurrences to print")
	nextCmd.Flags().StringVar(&nextFrom, "from", "", "base time in RFC 3339 format (default: now)")
}

func runNext(out io.Writer, expr string, base time.Time, count int) error {
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	schedule, err := crontab.Parse(expr)
	if err != nil {
		return err
	}

	until := time.Date(9999, time.December, 31, 23, 59, 0, 0, base.Location())

	printed := 0
	for occurrence := range schedule.Occurrences(base, until) {
		fmt.Fprintln(out, occurrence.Format(time.RFC3339))
		printed++
		if printed == count {
			break
		}
	}
	if printed == 0 {
		return fmt.Errorf("schedule %q has no occurrence after %s", expr, base.Format(time.RFC3339))
	}
	return nil
}
