package main

import "github.com/glowteam/skinscan/cmd"

func main() {
	cmd.Execute()
}
