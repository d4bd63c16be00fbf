package main

import (
	"github.com/rhuffman/dbstream/pkg/cli"
)

func main() {
	cli.Execute()
}
