// Command labdash is the terminal client of the lab collaboration dashboard.
package main

import (
	"os"

	"github.com/mikeboe/lab-dashboard/cmd/labdash/cmd"
)

var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
