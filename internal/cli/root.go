package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fekuna/chronostore/internal/auth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

var v = viper.New()

// dial is replaced in tests.
var dial = func(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "Administer a running chronostore service",
	Long: `storectl talks to the chronostore gRPC API as an administrator.

Settings come from flags, CHRONOSTORE_* environment variables or
$HOME/.chronostore/storectl.yaml, in that order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().String("addr", "localhost:8082", "gRPC address of the service")
	rootCmd.PersistentFlags().String("user", "", "administrator id sent as "+auth.HeaderUserID)
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "per-request timeout")
	_ = v.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))
	_ = v.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	_ = v.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func loadConfig() error {
	v.SetConfigName("storectl")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.chronostore/")
	v.AddConfigPath(".")
	v.SetEnvPrefix("CHRONOSTORE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session opens a connection and a request context carrying the
// administrator identity.
func session(cmd *cobra.Command) (*grpc.ClientConn, context.Context, context.CancelFunc, error) {
	conn, err := dial(v.GetString("addr"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to %s: %w", v.GetString("addr"), err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), v.GetDuration("timeout"))
	if user := v.GetString("user"); user != "" {
		ctx = metadata.AppendToOutgoingContext(ctx,
			auth.HeaderUserID, user,
			auth.HeaderUserRole, string(auth.RoleAdmin),
		)
	}
	return conn, ctx, cancel, nil
}
