package main

import "github.com/mcoot/quizroom/internal/cli"

func main() {
	cli.Execute()
}
