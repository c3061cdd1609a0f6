package main

import "github.com/ppiankov/hostgate/internal/cli"

func main() {
	cli.Execute()
}
