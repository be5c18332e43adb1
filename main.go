package main

import "github.com/jywlabs/kickoff/cmd"

func main() {
	cmd.Execute()
}
