package main

import "gotick/cmd"

func main() {
	cmd.Execute()
}
