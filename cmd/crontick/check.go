package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/crontick/crontick/internal/crontab"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <expression>",
	Short: "Validate a crontab expression",
	Long: `Parse a five-field crontab expression and print its canonical form.
Exits non-zero when the expression is invalid.

Example:
  crontick check "*/15 9-17 * * Mon-Fri"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.OutOrStdout(), args[0])
	},
}

func runCheck(out io.Writer, expr string) error {
	schedule, err := crontab.Parse(expr)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, schedule.String())
	return nil
}
