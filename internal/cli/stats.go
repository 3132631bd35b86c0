package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fekuna/chronostore/internal/currency"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/rpc"
	"github.com/fekuna/chronostore/internal/statistics"
	statH "github.com/fekuna/chronostore/internal/statistics/handler"
	"github.com/spf13/cobra"
)

var statsCurrency string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show sales statistics for the last seven days",
	RunE:  showStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsCurrency, "currency", currency.Canonical, "currency to show amounts in")
}

func showStats(cmd *cobra.Command, _ []string) error {
	conn, ctx, cancel, err := session(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer conn.Close()

	var s statistics.Snapshot
	if err := rpc.Call(ctx, conn, statH.ServiceName, "GetStatistics", struct{}{}, &s); err != nil {
		return err
	}

	rates := currency.NewConverter(logger.NewNop())
	money := func(v int64) string {
		f := float64(v)
		return rates.Format(&f, statsCurrency)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Products: %d on sale, %d archived\n", s.TotalProducts, s.ArchivedProducts)
	fmt.Fprintf(out, "Orders:   %d total, %d pending, %d completed\n", s.TotalOrders, s.PendingOrders, s.CompletedOrders)
	fmt.Fprintf(out, "Revenue:  %s\n\n", money(s.TotalRevenue))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tORDERS\tREVENUE")
	for _, d := range s.Daily {
		fmt.Fprintf(w, "%s\t%d\t%s\n", d.Date, d.Orders, money(d.Revenue))
	}
	w.Flush()

	if len(s.TopProducts) > 0 {
		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOP PRODUCT\tSOLD\tREVENUE")
		for _, p := range s.TopProducts {
			fmt.Fprintf(w, "%s %s\t%d\t%s\n", p.Brand, p.Title, p.Quantity, money(p.Revenue))
		}
		w.Flush()
	}
	if len(s.LowStock) > 0 {
		fmt.Fprintf(out, "\nLow stock: %v\n", s.LowStock)
	}
	return nil
}
