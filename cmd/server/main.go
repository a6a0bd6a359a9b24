package main

import (
	"log"

	"github.com/Robotvalley19/Geocaching-App/internal/app"
	"github.com/Robotvalley19/Geocaching-App/pkg/config"
)

func main() {
	realMain()
}

func realMain() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalln(err)
	}

	app.RunServer(cfg)
}
