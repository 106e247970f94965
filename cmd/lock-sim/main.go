package main

import "github.com/oshokin/door-lock/cmd/lock-sim/cmd"

func main() {
	cmd.Execute()
}
