package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/k9securityio/cedargate/pkg/clierror"
	"github.com/spf13/cobra"
)

var (
	validatePoliciesFile string
	validateSchemaFile   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate policies against a schema",
	Long: `Check every policy in a file against a schema and report each finding
with the id of the policy it belongs to. Policies that do not parse, and
schemas that do not parse, are reported as findings rather than aborting.

Examples:
  cedargate validate --policies app.cedar --schema app.cedarschema
  cedargate validate --policies app.cedar --schema schema.json`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validatePoliciesFile, "policies", "", "Cedar policy file (required)")
	validateCmd.Flags().StringVar(&validateSchemaFile, "schema", "", "Schema file, JSON or Cedar form (required)")
	_ = validateCmd.MarkFlagRequired("policies")
	_ = validateCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	policies, err := policySourceFromFile(validatePoliciesFile)
	if err != nil {
		return err
	}
	schema, err := schemaSourceFromFile(validateSchemaFile)
	if err != nil {
		return err
	}

	result, err := newAuthorizer().ValidatePolicies(policies, schema)
	if err != nil {
		return err
	}
	if result.Passed() {
		fmt.Fprintln(cmd.OutOrStdout(), "validation passed")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Policy", "Error"})
	for _, finding := range result.Errors() {
		t.AppendRow(table.Row{finding.PolicyID, finding.Message})
	}
	t.Render()
	return clierror.ValidationFailed(len(result.Errors()))
}
