package main

import "github.com/moonhowl/werewolf-go/internal/cli"

func main() {
	cli.Execute()
}
