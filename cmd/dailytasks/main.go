package main

import "daily-tasks/internal/cli"

func main() {
	cli.Execute()
}
