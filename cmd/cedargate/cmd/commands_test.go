package cmd

import (
	"encoding/json"
	"testing"

	"github.com/k9securityio/cedargate/internal/testutil/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPolicies = `permit(principal == User::"alice", action == Action::"view", resource);`

const testEntities = `[
	{"uid": {"type": "User", "id": "alice"}, "attrs": {}, "parents": []},
	{"uid": {"type": "Photo", "id": "vacation"}, "attrs": {}, "parents": []}
]`

// resetFlags clears flag state left behind by a previous Execute. Cobra flag
// vars are package-level, so sequential test runs must not inherit values.
func resetFlags() {
	authorizePoliciesFile = ""
	authorizeEntitiesFile = ""
	authorizeSchemaFile = ""
	authorizeRequestFile = ""
	authorizeBatchFile = ""
	authorizeOutput = "text"
	authorizeAssignIDs = false
	validatePoliciesFile = ""
	validateSchemaFile = ""
	formatCheck = false
	formatWrite = false
	convertFromJSON = false
}

func TestAuthorizeCommand_TextOutput(t *testing.T) {
	resetFlags()
	policies := cli.TempFile(t, "app.cedar", testPolicies)
	entities := cli.TempFile(t, "entities.json", testEntities)
	request := cli.TempFile(t, "req.json",
		`{"principal": "User::\"alice\"", "action": "Action::\"view\"", "resource": "Photo::\"vacation\"", "correlation_id": "req-1"}`)

	result := cli.Run(rootCmd, "authorize",
		"--policies", policies, "--entities", entities, "--request", request)

	result.AssertSuccess(t)
	result.AssertContains(t, "ALLOW")
	result.AssertContains(t, "req-1")
	result.AssertContains(t, "policy0")
}

func TestAuthorizeCommand_BatchJSONOutput(t *testing.T) {
	resetFlags()
	policies := cli.TempFile(t, "app.cedar", testPolicies)
	batch := cli.TempFile(t, "reqs.json", `[
		{"principal": "User::\"alice\"", "action": "Action::\"view\"", "resource": "Photo::\"vacation\""},
		{"principal": "User::\"mallory\"", "action": "Action::\"view\"", "resource": "Photo::\"vacation\""}
	]`)

	result := cli.Run(rootCmd, "authorize",
		"--policies", policies, "--batch", batch, "--output", "json")

	result.AssertSuccess(t)

	var decoded []struct {
		Decision string `json:"decision"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Stdout), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Allow", decoded[0].Decision)
	assert.Equal(t, "Deny", decoded[1].Decision)
}

func TestAuthorizeCommand_RequiresExactlyOneRequestSource(t *testing.T) {
	resetFlags()
	policies := cli.TempFile(t, "app.cedar", testPolicies)

	cli.Run(rootCmd, "authorize", "--policies", policies).AssertError(t)

	resetFlags()
	request := cli.TempFile(t, "req.json", `{"principal": "User::\"a\"", "action": "Action::\"view\"", "resource": "Photo::\"p\""}`)
	cli.Run(rootCmd, "authorize",
		"--policies", policies, "--request", request, "--batch", request).AssertError(t)
}

func TestValidateCommand_PassAndFail(t *testing.T) {
	resetFlags()
	schema := cli.TempFile(t, "app.cedarschema", `
		entity User;
		entity Photo;
		action view appliesTo { principal: User, resource: Photo };
	`)

	good := cli.TempFile(t, "good.cedar", testPolicies)
	result := cli.Run(rootCmd, "validate", "--policies", good, "--schema", schema)
	result.AssertSuccess(t)
	result.AssertContains(t, "validation passed")

	resetFlags()
	bad := cli.TempFile(t, "bad.cedar",
		`permit(principal == User::"alice", action == Action::"view", resource) when { principal.age > 18 };`)
	result = cli.Run(rootCmd, "validate", "--policies", bad, "--schema", schema)
	result.AssertError(t)
	result.AssertContains(t, "policy0")
	result.AssertContains(t, "age")
}

func TestFormatCommand(t *testing.T) {
	resetFlags()
	messy := cli.TempFile(t, "messy.cedar",
		"permit( principal ,action == Action::\"view\",resource );")

	result := cli.Run(rootCmd, "format", messy)
	result.AssertSuccess(t)
	result.AssertContains(t, `action == Action::"view"`)

	// The canonical output must itself pass --check.
	resetFlags()
	canonical := cli.TempFile(t, "canonical.cedar", result.Stdout)
	cli.Run(rootCmd, "format", "--check", canonical).AssertSuccess(t)

	resetFlags()
	cli.Run(rootCmd, "format", "--check", messy).AssertError(t)
}

func TestConvertCommand_RoundTrip(t *testing.T) {
	resetFlags()
	policies := cli.TempFile(t, "app.cedar", testPolicies)

	toJSON := cli.Run(rootCmd, "convert", policies)
	toJSON.AssertSuccess(t)
	toJSON.AssertContains(t, "staticPolicies")

	resetFlags()
	asJSON := cli.TempFile(t, "app.cedar.json", toJSON.Stdout)
	back := cli.Run(rootCmd, "convert", "--from-json", asJSON)
	back.AssertSuccess(t)
	back.AssertContains(t, `User::"alice"`)
}

func TestRootCommand_Version(t *testing.T) {
	resetFlags()
	result := cli.Run(rootCmd, "--version")
	result.AssertSuccess(t)
	result.AssertContains(t, "vdev")
}
