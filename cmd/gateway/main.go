package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/chasecyang/shotrio-engine/internal/gateway"
)

func main() {
	_ = godotenv.Load()

	cfg, err := gateway.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	r := gateway.Router(cfg)

	log.Printf("gateway listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("gateway: %v", err)
	}
}
