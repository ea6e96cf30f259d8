// Package main runs the Nimbus client engine behind a local HTTP
// control API
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NimbusChat/nimbus-client/pkg/api"
	"github.com/NimbusChat/nimbus-client/pkg/network"
	"github.com/NimbusChat/nimbus-client/pkg/storage"
)

func main() {
	relayURL := flag.String("relay", network.DefaultRelayURL, "Relay websocket URL")
	apiPort := flag.Int("api-port", 8099, "HTTP control API port")
	dbPath := flag.String("db", "", "Message cache database path (empty disables caching)")
	dbPass := flag.String("db-pass", "", "Passphrase for the message cache")
	platform := flag.String("platform", "web", "Platform label for the device identity")
	autoConnect := flag.Bool("connect", true, "Connect to the relay on startup")
	autoReconnect := flag.Bool("reconnect", true, "Reconnect after a server-initiated close")
	keepalive := flag.Duration("keepalive", 30*time.Second, "Keepalive ping interval (0 disables)")
	enableCORS := flag.Bool("cors", true, "Enable CORS headers")
	rateLimit := flag.Int("rate-limit", 300, "Rate limit (requests per minute)")

	flag.Parse()

	fmt.Println("Nimbus Client API")
	fmt.Println("=================")

	cfg := network.DefaultConfig()
	cfg.RelayURL = *relayURL
	cfg.Platform = *platform
	cfg.AutoReconnect = *autoReconnect
	cfg.KeepaliveInterval = *keepalive

	client := network.NewClient(nil, cfg)

	var db *storage.MessageDB
	if *dbPath != "" {
		var err error
		db, err = storage.NewMessageDB(*dbPath, *dbPass)
		if err != nil {
			log.Fatalf("Failed to open message cache: %v", err)
		}
		client.AttachDatabase(db)
		fmt.Printf("Message cache: %s\n", *dbPath)
	}

	if *autoConnect {
		fmt.Printf("Connecting to relay %s...\n", *relayURL)
		if err := client.Connect(); err != nil {
			// The API can still drive a retry later
			log.Printf("Initial connect failed: %v", err)
		} else {
			state, _ := client.State()
			fmt.Printf("Connection state: %s\n", state)
		}
	}

	apiConfig := api.DefaultConfig()
	apiConfig.Port = *apiPort
	apiConfig.EnableCORS = *enableCORS
	apiConfig.RateLimit = *rateLimit

	server := api.NewServer(client, db, apiConfig)

	apiCtx, apiCancel := context.WithCancel(context.Background())
	defer apiCancel()

	go func() {
		if err := server.Start(apiCtx); err != nil {
			log.Printf("Control API error: %v", err)
		}
	}()

	fmt.Printf("Control API: http://localhost:%d/api/v1\n", *apiPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	apiCancel()

	if err := client.Close(); err != nil {
		log.Printf("Error closing client: %v", err)
	}
	if db != nil {
		if err := db.Close(); err != nil {
			log.Printf("Error closing message cache: %v", err)
		}
	}
}
