package main

import (
	"os"
)

func main() {
	if err := casperdMain(); err != nil {
		os.Exit(1)
	}
}
