package main

import "github.com/amirhosseinghanipour/scaffold/internal/cli"

func main() {
	cli.Execute()
}
