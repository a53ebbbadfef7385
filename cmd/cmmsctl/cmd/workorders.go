package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var workOrdersCmd = &cobra.Command{
	Use:     "workorders",
	Aliases: []string{"wo"},
	Short:   "Inspect work orders",
}

var workOrdersShowCmd = &cobra.Command{
	Use:   "show [work_order_id]",
	Short: "Show a work order with its parts and history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(svc *Services) error {
			ctx := cmd.Context()
			wo, err := svc.WorkOrders.Get(ctx, args[0])
			if err != nil {
				return err
			}
			parts, err := svc.Parts.ListByWorkOrder(ctx, wo.ID)
			if err != nil {
				return err
			}
			history, err := svc.WorkOrders.History(ctx, wo.ID)
			if err != nil {
				return err
			}

			cmd.Printf("Work order %s\n", wo.ID)
			cmd.Println("──────────────────────────────")
			cmd.Printf("Title:      %s\n", wo.Title)
			cmd.Printf("Status:     %s\n", wo.Status)
			cmd.Printf("Priority:   %s\n", wo.Priority)
			cmd.Printf("Type:       %s\n", wo.Type)
			cmd.Printf("Asset:      %s\n", wo.AssetID)
			if wo.AssignedToID != nil {
				cmd.Printf("Assignee:   %s\n", *wo.AssignedToID)
			}
			cmd.Printf("Estimated:  %s\n", wo.EstimatedCost.StringFixed(2))
			cmd.Printf("Total:      %s (labor %s, material %s)\n",
				wo.TotalCost.StringFixed(2), wo.LaborCost.StringFixed(2), wo.MaterialCost.StringFixed(2))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			if len(parts) > 0 {
				fmt.Fprintln(w, "\nPART\tSTATUS\tPLANNED\tRESERVED\tCONSUMED\tTOTAL")
				for _, p := range parts {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", p.PartID, p.Status,
						p.QuantityPlanned, p.QuantityReserved, p.QuantityConsumed, p.TotalPrice.StringFixed(2))
				}
			}
			fmt.Fprintln(w, "\nWHEN\tEVENT\tFROM\tTO\tBY")
			for _, e := range history {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt.Format("2006-01-02 15:04"),
					e.Type, e.FromStatus, e.ToStatus, e.PerformedBy)
			}
			return w.Flush()
		})
	},
}

func init() {
	workOrdersCmd.AddCommand(workOrdersShowCmd)
	rootCmd.AddCommand(workOrdersCmd)
}
