// Command gastos-worker consumes sync requests from the message queue and
// writes pending variable expenses into the workbook.
package main

import (
	"os"

	"gastos/internal/cli"
)

func main() {
	os.Exit(cli.Run(append([]string{"worker"}, os.Args[1:]...), os.Stdout, os.Stderr))
}
