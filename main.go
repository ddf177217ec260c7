package main

import (
	"fmt"
	"os"
	_ "time/tzdata" // timezone names must resolve on minimal images
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
