// Package cli provides shared test utilities for CLI testing with cobra commands.
//
// This package eliminates boilerplate when testing cobra CLI applications by
// providing helpers for command execution, output capture, and assertions.
//
// # Basic Usage
//
// Execute a command and check output:
//
//	result := cli.Run(rootCmd, "--help")
//	result.AssertSuccess(t)
//	result.AssertContains(t, "Usage:")
//
// # Output Capture
//
// The Run function captures both stdout and stderr:
//
//	result := cli.Run(rootCmd, "validate", "--policies", p, "--schema", s)
//	if result.Err != nil {
//		t.Fatalf("command failed: %v", result.Err)
//	}
//	fmt.Println(result.Stdout)  // captured stdout
//	fmt.Println(result.Stderr)  // captured stderr
//
// # File Fixtures
//
// Commands take policies, entities, schemas, and requests as file flags.
// TempFile stages such an input in a per-test temp directory:
//
//	policies := cli.TempFile(t, "app.cedar", `permit(principal, action, resource);`)
//
// # Assertion Methods
//
// CommandResult provides fluent assertion methods:
//
//	result := cli.Run(rootCmd, "format", policies)
//	result.AssertSuccess(t)                    // No error
//	result.AssertError(t)                      // Expects error
//	result.AssertContains(t, "expected text")  // Stdout contains
//	result.AssertExact(t, "exact output\n")    // Stdout equals exactly
package cli
