package main

import "github.com/mcoot/connectaword/internal/cli"

func main() {
	cli.Execute()
}
