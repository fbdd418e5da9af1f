package main

import "github.com/chrisdamba/visitconsensus/cmd"

func main() {
	cmd.Execute()
}
