package main

import "tourbooking/cmd"

func main() {
	cmd.Execute()
}
