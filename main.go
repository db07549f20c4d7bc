package main

import "github.com/oumpowerman/thaoshare/cmd"

func main() {
	cmd.Execute()
}
