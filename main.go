// The main package for the factpoller executable.
package main

import (
	"github.com/JakeFAU/fact-poller/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
