package main

import "carrier-lookup/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
