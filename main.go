package main

import (
	"github.com/jjtimmons/music/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
