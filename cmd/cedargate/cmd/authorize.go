package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	authorizePoliciesFile string
	authorizeEntitiesFile string
	authorizeSchemaFile   string
	authorizeRequestFile  string
	authorizeBatchFile    string
	authorizeOutput       string
	authorizeAssignIDs    bool
)

var (
	allowText = color.New(color.FgGreen, color.Bold).Sprint("ALLOW")
	denyText  = color.New(color.FgRed, color.Bold).Sprint("DENY")
)

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Evaluate authorization requests against a policy set",
	Long: `Evaluate one request or an ordered batch against a shared policy set.

The request file holds a JSON object with principal, action, and resource
entity references (Type::"id"), an optional context object, and an optional
correlation_id. A batch file holds a JSON array of such objects; results come
back in the same order.

Examples:
  cedargate authorize --policies app.cedar --entities entities.json --request req.json
  cedargate authorize --policies app.cedar --schema app.cedarschema --batch reqs.json --output json`,
	RunE: runAuthorize,
}

func init() {
	authorizeCmd.Flags().StringVar(&authorizePoliciesFile, "policies", "", "Cedar policy file (required)")
	authorizeCmd.Flags().StringVar(&authorizeEntitiesFile, "entities", "", "Entity graph JSON file")
	authorizeCmd.Flags().StringVar(&authorizeSchemaFile, "schema", "", "Schema file, JSON or Cedar form")
	authorizeCmd.Flags().StringVar(&authorizeRequestFile, "request", "", "Single request JSON file")
	authorizeCmd.Flags().StringVar(&authorizeBatchFile, "batch", "", "Batch request JSON file (array of requests)")
	authorizeCmd.Flags().StringVarP(&authorizeOutput, "output", "o", "text", "Output format: text or json")
	authorizeCmd.Flags().BoolVar(&authorizeAssignIDs, "assign-ids", false, "Assign a UUID correlation id to requests missing one")
	_ = authorizeCmd.MarkFlagRequired("policies")
	rootCmd.AddCommand(authorizeCmd)
}

func runAuthorize(cmd *cobra.Command, _ []string) error {
	if (authorizeRequestFile == "") == (authorizeBatchFile == "") {
		return errors.New("exactly one of --request or --batch is required")
	}

	policies, err := policySourceFromFile(authorizePoliciesFile)
	if err != nil {
		return err
	}
	entities, err := entitySourceFromFile(authorizeEntitiesFile)
	if err != nil {
		return err
	}
	schema, err := schemaSourceFromFile(authorizeSchemaFile)
	if err != nil {
		return err
	}

	path := authorizeRequestFile
	batch := false
	if authorizeBatchFile != "" {
		path = authorizeBatchFile
		batch = true
	}
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}
	reqs, err := decodeRequests(data, batch)
	if err != nil {
		return err
	}
	if authorizeAssignIDs {
		assignCorrelationIDs(reqs)
	}

	results, err := newAuthorizer().IsAuthorizedBatch(cmd.Context(), reqs, policies, entities, schema)
	if err != nil {
		return err
	}

	switch authorizeOutput {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "text":
		out := cmd.OutOrStdout()
		for i, res := range results {
			label := allowText
			if !res.Allowed() {
				label = denyText
			}
			fmt.Fprintf(out, "%d: %s", i, label)
			if id := res.CorrelationID(); id != "" {
				fmt.Fprintf(out, "  %s", id)
			}
			if reasons := res.Reasons(); len(reasons) > 0 {
				fmt.Fprintf(out, "  (%v)", reasons)
			}
			fmt.Fprintln(out)
			for _, diag := range res.Errors() {
				fmt.Fprintf(out, "   error: %s: %s\n", diag.PolicyID, diag.Message)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", authorizeOutput)
	}
}
