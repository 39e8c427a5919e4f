// Command jetcoordd runs a jetcoord job execution coordinator node.
package main

import (
	"fmt"
	"os"

	"github.com/flowmesh/jetcoord/cmd/jetcoordd/command"
)

func main() {
	if err := command.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
