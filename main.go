package main

import (
	"os"

	"github.com/strrl/llm-code/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
