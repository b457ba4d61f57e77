// cedargate evaluates, validates, and formats Cedar policies from the
// command line.
package main

import "github.com/k9securityio/cedargate/cmd/cedargate/cmd"

func main() {
	cmd.Execute()
}
