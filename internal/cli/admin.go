package cli

import (
	"fmt"

	"github.com/fekuna/chronostore/internal/admin/dto"
	adminH "github.com/fekuna/chronostore/internal/admin/handler"
	"github.com/fekuna/chronostore/internal/rpc"
	"github.com/spf13/cobra"
)

var (
	adminName     string
	adminPhone    string
	adminPassword string
)

var addAdminCmd = &cobra.Command{
	Use:   "add-admin",
	Short: "Create another administrator",
	RunE:  addAdmin,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check administrator credentials and print the id to use with --user",
	RunE:  login,
}

func init() {
	rootCmd.AddCommand(addAdminCmd, loginCmd)

	addAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	addAdminCmd.Flags().StringVar(&adminPhone, "phone", "", "phone number, used to log in")
	addAdminCmd.Flags().StringVar(&adminPassword, "password", "", "initial password")
	_ = addAdminCmd.MarkFlagRequired("phone")
	_ = addAdminCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringVar(&adminPhone, "phone", "", "phone number")
	loginCmd.Flags().StringVar(&adminPassword, "password", "", "password")
	_ = loginCmd.MarkFlagRequired("phone")
	_ = loginCmd.MarkFlagRequired("password")
}

func addAdmin(cmd *cobra.Command, _ []string) error {
	conn, ctx, cancel, err := session(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer conn.Close()

	var created dto.AdminResponse
	err = rpc.Call(ctx, conn, adminH.ServiceName, "CreateAdmin", dto.CreateAdminInput{
		Name:     adminName,
		Phone:    adminPhone,
		Password: adminPassword,
	}, &created)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s (%s)\n", created.ID, created.Phone)
	return nil
}

func login(cmd *cobra.Command, _ []string) error {
	conn, ctx, cancel, err := session(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer conn.Close()

	var a dto.AdminResponse
	if err := rpc.Call(ctx, conn, adminH.ServiceName, "Login", dto.LoginInput{Phone: adminPhone, Password: adminPassword}, &a); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.ID)
	return nil
}
