package main

import "github.com/lepinkainen/ratingsync/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
