package main

import "github.com/barida/identity-server/cmd"

func main() {
	cmd.Execute()
}
