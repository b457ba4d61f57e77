package cmd

import (
	"errors"
	"fmt"

	"github.com/k9securityio/cedargate/pkg/authz"
	"github.com/k9securityio/cedargate/pkg/clierror"
	"github.com/spf13/cobra"
)

var (
	formatCheck bool
	formatWrite bool
)

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Pretty-print Cedar policy text",
	Long: `Rewrite Cedar policy text into the engine's canonical form. Reads from
stdin when no file is given.

Examples:
  cedargate format app.cedar
  cat app.cedar | cedargate format
  cedargate format --check app.cedar
  cedargate format --write app.cedar`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().BoolVar(&formatCheck, "check", false, "Exit non-zero if the input is not already canonical")
	formatCmd.Flags().BoolVar(&formatWrite, "write", false, "Rewrite the file in place instead of printing")
	rootCmd.AddCommand(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	if formatWrite && (path == "" || path == "-") {
		return errors.New("--write requires a file argument")
	}

	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading policies: %w", err)
	}
	formatted, err := authz.FormatPolicies(string(data))
	if err != nil {
		return err
	}

	if formatCheck {
		if formatted != string(data) {
			return clierror.NotCanonical(path)
		}
		return nil
	}
	if formatWrite {
		return writeOutput(path, []byte(formatted), cmd.OutOrStdout())
	}
	return writeOutput("", []byte(formatted), cmd.OutOrStdout())
}
