package main

import "github.com/iksnae/agent-webcall/cmd"

func main() {
	cmd.Execute()
}
