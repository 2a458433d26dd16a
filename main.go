// The main package for the cardscan executable.
package main

import (
	"github.com/FedeDC512/pokemon-cardvariant-finder/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
