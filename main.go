package main

import "github.com/killallgit/sherpa/cmd"

func main() {
	cmd.Execute()
}
