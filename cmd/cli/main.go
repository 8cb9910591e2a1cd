package main

import "pdf-contacts/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
