package main

import "uxscope/cmd"

func main() {
	cmd.Execute()
}
