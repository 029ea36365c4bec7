package main

import (
	"github.com/lexseg/lexseg/cmd/lexseg/cmd"
)

func main() {
	cmd.Execute()
}
