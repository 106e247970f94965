package main

import "github.com/oshokin/door-lock/cmd/lock-control/cmd"

func main() {
	cmd.Execute()
}
