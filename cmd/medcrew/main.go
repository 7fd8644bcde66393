package main

import (
	"log"
	"os"

	"github.com/mohammad-safakhou/medcrew/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Printf("medcrew: %v", err)
		os.Exit(1)
	}
}
