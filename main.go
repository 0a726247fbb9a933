package main

import "snaptext/cmd"

func main() {
	cmd.Execute()
}
