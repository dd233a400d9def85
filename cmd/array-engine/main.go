// Command array-engine is the job-array execution and submission layer for
// HPC inversion workflows.
package main

import (
	"os"

	"geoflow/array-engine/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
