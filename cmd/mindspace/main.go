// MindSpace journaling CLI.
package main

import "github.com/mindspacehq/mindspace/internal/cli"

func main() {
	cli.Execute()
}
