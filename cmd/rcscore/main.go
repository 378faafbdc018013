package main

import "github.com/okian/rcscore/internal/cli"

func main() {
	cli.Execute()
}
