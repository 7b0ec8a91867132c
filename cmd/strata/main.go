// Command strata is the CLI front end for the strata storage library.
package main

import "github.com/strata-db/strata/internal/cli"

func main() {
	cli.Execute()
}
