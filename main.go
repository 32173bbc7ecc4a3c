package main

import "spring-change/cmd"

func main() {
	cmd.Execute()
}
