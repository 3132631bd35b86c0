package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/fekuna/chronostore/internal/inventory/dto"
	invH "github.com/fekuna/chronostore/internal/inventory/handler"
	"github.com/fekuna/chronostore/internal/rpc"
	"github.com/spf13/cobra"
)

var restoreStock int

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage sold-out products",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived products",
	Args:  cobra.NoArgs,
	RunE:  listArchive,
}

var archiveRestoreCmd = &cobra.Command{
	Use:   "restore <product-id>",
	Short: "Put an archived product back on sale",
	Args:  cobra.ExactArgs(1),
	RunE:  restoreProduct,
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <product-id>",
	Short: "Remove an archived product permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteArchived,
}

var stockCmd = &cobra.Command{
	Use:   "stock <product-id> <count>",
	Short: "Set the stock of a product on sale; 0 archives it",
	Args:  cobra.ExactArgs(2),
	RunE:  setStock,
}

func init() {
	rootCmd.AddCommand(archiveCmd, stockCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveRestoreCmd, archiveDeleteCmd)
	archiveRestoreCmd.Flags().IntVar(&restoreStock, "stock", 1, "stock to restore with")
}

func listArchive(cmd *cobra.Command, _ []string) error {
	conn, ctx, cancel, err := session(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer conn.Close()

	var res dto.ProductListResponse
	if err := rpc.Call(ctx, conn, invH.ServiceName, "ListArchived", struct{}{}, &res); err != nil {
		return err
	}
	if res.Total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "archive is empty")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBRAND\tTITLE\tARCHIVED")
	for _, p := range res.Products {
		archived := ""
		if p.ArchivedAt != nil {
			archived = p.ArchivedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Brand, p.Title, archived)
	}
	return w.Flush()
}

func restoreProduct(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if restoreStock <= 0 {
		return fmt.Errorf("--stock must be positive, got %d", restoreStock)
	}
	return call(cmd, "RestoreFromArchive", dto.RestoreInput{ProductID: id, InitialStock: restoreStock},
		fmt.Sprintf("product %d restored with stock %d", id, restoreStock))
}

func deleteArchived(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return call(cmd, "DeleteFromArchive", dto.IDInput{ID: id}, fmt.Sprintf("product %d deleted", id))
}

func setStock(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid count %q", args[1])
	}
	return call(cmd, "UpdateStock", dto.UpdateStockInput{ProductID: id, Stock: n}, fmt.Sprintf("product %d stock set to %d", id, n))
}

func call(cmd *cobra.Command, method string, req any, done string) error {
	conn, ctx, cancel, err := session(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer conn.Close()

	if err := rpc.Call(ctx, conn, invH.ServiceName, method, req, nil); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}
