// main - entry-point to the unionpay gateway commands through cobra.
// individual commands are outlined in ./cmd/
package main

import (
	"github.com/unionpay-go/unionpay/cmd"
)

var (
	// variables will be overwritten at build time
	version   string
	commit    string
	buildTime string
)

func main() {
	cmd.Execute(version, commit, buildTime)
}
