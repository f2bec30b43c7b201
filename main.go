package main

import "github.com/TonyXvr/DigitGuesser/internal/cli"

func main() {
	cli.Execute()
}
