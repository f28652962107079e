package trigger

import (
	"context"
	"fmt"
	"io"
	"time"

	"weblidercontrol/internal/validator"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RootCmd rondas-trigger 命令树
func RootCmd() *cobra.Command {
	var server string
	var timeout time.Duration

	root := &cobra.Command{
		Use:           "rondas-trigger",
		Short:         "Manually trigger round validation and inspect rounds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&server, "server", "http://localhost:8080", "rondas-validator base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "request timeout")

	newClient := func() *Client { return NewClient(server, timeout, nil) }
	root.AddCommand(validateCmd(newClient), detailCmd(newClient))
	return root
}

func validateCmd(newClient func() *Client) *cobra.Command {
	var cadence string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run one validation batch and print the per-round outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := newClient().ValidateRounds(context.Background(), cadence)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&cadence, "cadence", validator.CadenceMinute, "cadence to run: minute or five_minute")
	return cmd
}

func detailCmd(newClient func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <round-id>",
		Short: "Show a round definition and its latest compliance record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := newClient().RoundDetail(context.Background(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			r := detail.Round
			if r == nil {
				return fmt.Errorf("%s: %w", args[0], ErrRoundNotFound)
			}
			fmt.Fprintf(out, "Round: %s - %s\n", r.ID, r.Name)
			fmt.Fprintf(out, "   Client: %s  Site: %s\n", r.Client, r.Site)
			tolerance := "(not set)"
			if r.Tolerance != nil {
				tolerance = fmt.Sprintf("%g %s", *r.Tolerance, r.ToleranceUnit)
			}
			fmt.Fprintf(out, "   Scheduled: %s  Tolerance: %s  Frequency: %s\n", r.ScheduledTime, tolerance, r.Frequency)
			fmt.Fprintf(out, "   Checkpoints: %d\n", len(r.Checkpoints))
			fmt.Fprintln(out)

			rec := detail.LatestRecord
			if rec == nil {
				fmt.Fprintln(out, "Latest record: (none)")
				return nil
			}
			fmt.Fprintf(out, "Latest record: %s [%s]\n", rec.ID, statusColor(string(rec.Status)))
			fmt.Fprintf(out, "   Window: %s - %s\n", rec.WindowStart.Format("2006-01-02 15:04"), rec.WindowEnd.Format("15:04"))
			return nil
		},
	}
}

func printSummary(out io.Writer, s *validator.Summary) {
	fmt.Fprintf(out, "Validation %s on %s\n", s.Cadence, s.Date)
	fmt.Fprintf(out, "  validated=%d missed=%d pending=%d already=%d skipped=%d errors=%d\n",
		s.Validated, s.Missed, s.Pending, s.AlreadyRecorded, s.Skipped, s.Errors)
	fmt.Fprintln(out)
	for _, r := range s.PerRoundDetail {
		fmt.Fprintf(out, "  %-20s %s  %s\n", r.RoundID, stateColor(r.State), r.Reason)
	}
}

func stateColor(state validator.RoundState) string {
	label := fmt.Sprintf("%-19s", state)
	switch {
	case state == validator.StateMissedRecorded, state == validator.StateError:
		return color.New(color.FgRed).Sprint(label)
	case state == validator.StatePending:
		return color.New(color.FgYellow).Sprint(label)
	case state == validator.StateAlreadyRecorded:
		return color.New(color.FgGreen).Sprint(label)
	default:
		return color.New(color.FgBlue).Sprint(label)
	}
}

func statusColor(status string) string {
	switch status {
	case "COMPLETED":
		return color.New(color.FgGreen).Sprint(status)
	case "INCOMPLETE":
		return color.New(color.FgYellow).Sprint(status)
	default:
		return color.New(color.FgRed).Sprint(status)
	}
}
