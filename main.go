package main

import "github.com/ninjacatsolana/nc-buyboy-v2/internal/cli"

func main() {
	cli.Execute()
}
