package main

import (
	"flag"
	"log"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/app"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/config"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/logger"
)

func main() {
	seedOnly := flag.Bool("seed-only", false, "load challenge manifests, then exit")
	seed := flag.Bool("seed", false, "load challenge manifests on startup")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceSeed = *seed || *seedOnly
	cfg.SeedOnly = *seedOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *seedOnly {
		log.Println("Challenge load complete, exiting")
		return
	}

	application.Run()
}
