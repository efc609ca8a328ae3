package main

import "github.com/mvp-joe/widgetgen/internal/cli"

func main() {
	cli.Execute()
}
