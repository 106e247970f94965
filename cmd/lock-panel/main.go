package main

import "github.com/oshokin/door-lock/cmd/lock-panel/cmd"

func main() {
	cmd.Execute()
}
