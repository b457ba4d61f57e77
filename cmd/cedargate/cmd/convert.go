package cmd

import (
	"fmt"

	"github.com/k9securityio/cedargate/pkg/authz"
	"github.com/spf13/cobra"
)

var convertFromJSON bool

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert policies between Cedar text and the JSON policy format",
	Long: `Convert Cedar policy text to the JSON policy format, or back with
--from-json. Reads from stdin when no file is given.

Examples:
  cedargate convert app.cedar > app.cedar.json
  cedargate convert --from-json app.cedar.json > app.cedar`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&convertFromJSON, "from-json", false, "Convert JSON policy format back to Cedar text")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading policies: %w", err)
	}

	var out string
	if convertFromJSON {
		out, err = authz.PoliciesFromJSON(string(data))
	} else {
		out, err = authz.PoliciesToJSON(string(data))
		if err == nil {
			out += "\n"
		}
	}
	if err != nil {
		return err
	}
	return writeOutput("", []byte(out), cmd.OutOrStdout())
}
