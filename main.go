package main

import "github.com/jsphweid/scoretensor/cmd"

func main() {
	cmd.Execute()
}
