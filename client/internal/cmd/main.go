package main

import (
	"imagevault/client/pkg/cmd"
	"log"
)

func main() {
	rootCmd, err := cmd.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
