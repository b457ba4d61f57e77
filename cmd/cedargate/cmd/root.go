// Package cmd implements the cedargate CLI commands.
package cmd

import (
	"log/slog"
	"os"

	"github.com/k9securityio/cedargate/internal/version"
	"github.com/k9securityio/cedargate/pkg/authz"
	"github.com/k9securityio/cedargate/pkg/clierror"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "cedargate",
	Short: "Cedar authorization request orchestration",
	Long: `cedargate evaluates authorization requests against Cedar policies.

It normalizes requests, entity graphs, and schemas from files, evaluates
single requests or ordered batches against a shared policy set, validates
policies against a schema, and pretty-prints policy text.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command, mapping failures to taxonomy exit codes.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cliErr := clierror.FromError(err)
		clierror.PrintError(cliErr, "text")
		os.Exit(cliErr.ExitCode)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Int("parallelism", 1, "Concurrent request evaluation within a batch")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("parallelism", rootCmd.PersistentFlags().Lookup("parallelism"))
	viper.SetEnvPrefix("CEDARGATE")
	viper.AutomaticEnv()
}

// newAuthorizer builds the shared authorizer handle from CLI configuration.
func newAuthorizer() *authz.Authorizer {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return authz.New(authz.Config{
		Logger:      logger,
		Parallelism: viper.GetInt("parallelism"),
	})
}
