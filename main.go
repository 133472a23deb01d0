// Package main is the entry point for the repair ledger.
package main

import "gitlab.com/yelinaung/repair-ledger/cmd"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Version, cmd.Commit, cmd.Date = version, commit, date
	cmd.Execute()
}
