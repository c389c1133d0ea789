// codegraph extracts a navigable code graph from a source repository.
package main

import "github.com/kestrelworks/codegraph/cmd/codegraph/cmd"

func main() {
	cmd.Execute()
}
