// Command civicctl runs the civic classification and evidence pipeline
// locally, without the HTTP server or a language model.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
