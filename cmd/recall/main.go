// Command recall runs free and serial recall experiments and summarises
// their data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/recall/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(context.Background())
	if err != nil && !cli.Reported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
