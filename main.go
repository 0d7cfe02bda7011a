package main

import (
	"log"

	"github.com/vioaki/prompt-manager/cmd"
	"github.com/vioaki/prompt-manager/config"
)

func main() {
	log.Printf("prompt-manager %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
