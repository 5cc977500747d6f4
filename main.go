package main

import "github.com/sw33tLie/xcdupes/cmd"

func main() {
	cmd.Execute()
}
