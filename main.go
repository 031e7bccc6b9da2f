package main

import "github.com/chibicitiberiu/chordsheet-engine/cmd"

func main() {
	cmd.Execute()
}
