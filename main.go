package main

import "tarameteo/internal/cli"

func main() {
	cli.Execute()
}
