package main

import "gofer/cli"

func main() {
	cli.Execute()
}
