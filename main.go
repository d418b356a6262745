package main

import "github.com/moyu-x/fotix/cmd"

func main() {
	cmd.Execute()
}
