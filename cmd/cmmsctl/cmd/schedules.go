package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/core/services"

	"github.com/spf13/cobra"
)

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "Inspect and execute maintenance schedules",
}

var schedulesDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List the schedules that are due now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(svc *Services) error {
			due, err := svc.Schedules.ListDue(cmd.Context())
			if err != nil {
				return err
			}
			if len(due) == 0 {
				cmd.Println("No schedules are due.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tASSET\tTRIGGER\tDUE\tTITLE")
			for _, s := range due {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.AssetID, s.TriggerType(), dueLabel(s), s.Title)
			}
			return w.Flush()
		})
	},
}

var schedulesRunDueCmd = &cobra.Command{
	Use:   "run-due",
	Short: "Generate work orders for every due schedule",
	Long: `Executes every active schedule that is due now as the SYSTEM actor. A
failing schedule does not stop the others; the command exits non-zero when
at least one failed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(svc *Services) error {
			report, err := svc.Schedules.ExecuteDue(cmd.Context())
			if report != nil {
				printReport(cmd, report)
			}
			if err != nil {
				return err
			}
			if n := len(report.Failed); n > 0 {
				return fmt.Errorf("%d schedule(s) failed", n)
			}
			return nil
		})
	},
}

var schedulesExecuteCmd = &cobra.Command{
	Use:   "execute [schedule_id]",
	Short: "Generate the work order of one due schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, err := actor()
		if err != nil {
			return err
		}
		return withServices(func(svc *Services) error {
			exec, err := svc.Schedules.Execute(cmd.Context(), caller, args[0])
			if err != nil {
				return err
			}
			printExecution(cmd, exec)
			return nil
		})
	},
}

var schedulesReadingCmd = &cobra.Command{
	Use:   "reading [schedule_id] [value]",
	Short: "Record a counter reading on a threshold schedule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid reading %q: %w", args[1], err)
		}
		caller, err := actor()
		if err != nil {
			return err
		}
		return withServices(func(svc *Services) error {
			s, err := svc.Schedules.RecordReading(cmd.Context(), caller, args[0], value)
			if err != nil {
				return err
			}
			cmd.Printf("Schedule %s: %d%% of threshold\n", s.ID, s.ThresholdProgress())
			if s.IsDue(time.Now().UTC()) {
				cmd.Println("Schedule is now due.")
			}
			return nil
		})
	},
}

func dueLabel(s domain.MaintenanceSchedule) string {
	if due, ok := s.NextDueDate(); ok {
		return due.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%d%%", s.ThresholdProgress())
}

func printExecution(cmd *cobra.Command, exec *services.Execution) {
	cmd.Printf("✅ Schedule %s generated work order %s (%s)\n", exec.Schedule.ID, exec.WorkOrder.ID, exec.WorkOrder.Status)
}

func printReport(cmd *cobra.Command, report *services.ExecutionReport) {
	for _, exec := range report.Executed {
		printExecution(cmd, exec)
	}
	for _, id := range report.Skipped {
		cmd.Printf("⏭  Schedule %s skipped\n", id)
	}
	for _, f := range report.Failed {
		cmd.Printf("❌ Schedule %s failed: %v\n", f.ScheduleID, f.Err)
	}
	cmd.Printf("Executed %d, skipped %d, failed %d\n", len(report.Executed), len(report.Skipped), len(report.Failed))
}

func init() {
	schedulesCmd.AddCommand(schedulesDueCmd, schedulesRunDueCmd, schedulesExecuteCmd, schedulesReadingCmd)
	rootCmd.AddCommand(schedulesCmd)
}
