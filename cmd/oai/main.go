package main

import (
	"fmt"
	"os"

	"github.com/HexmosTech/openai-go"
)

func main() {
	if err := openai.Main(&openai.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
