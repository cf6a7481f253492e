package main

import (
	cmd "github.com/boltoncivic/crawlctl/internal/cli"
)

func main() {
	cmd.Execute()
}
