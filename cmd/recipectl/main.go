// Command recipectl runs maintenance tasks against the recipe database:
// schema migrations, sample data and S3 exports.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}
