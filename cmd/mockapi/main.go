// Command mockapi runs an in-memory FarmLink server for local
// development. All data is lost on exit.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/farmlink/farmlink-go/internal/mockapi"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	secret := flag.String("secret", "", "JWT signing key (auto-generated if empty)")
	seed := flag.Bool("seed", false, "start with demo accounts and listings")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			logger.Error("generating secret", "err", err)
			os.Exit(1)
		}
		*secret = hex.EncodeToString(buf)
		logger.Info("JWT secret auto-generated (tokens are invalidated on restart)")
	}

	server := mockapi.NewServer(*secret)
	if *seed {
		seedDemoData(server, logger)
	}

	logger.Info("mock server listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, server.Handler()); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func seedDemoData(server *mockapi.Server, logger *slog.Logger) {
	joseph := server.SeedUser("Joseph Kiprop", "joseph@example.com", "password1", "0712345678")
	amina := server.SeedUser("Amina Wanjiru", "amina@example.com", "password1", "0723456789")

	server.SeedListing(joseph, "Used Massey Ferguson 240", "Tractors and Machinery", "8500")
	server.SeedListing(joseph, "Certified maize seed 10kg", "Crop Seeds", "40")
	server.SeedListing(amina, "Drip irrigation kit, half acre", "Irrigation Systems", "120")
	server.SeedListing(amina, "Fresh kale, per crate", "Veggies", "8")

	server.SeedDiscussion(amina, "Armyworm sightings", "Seeing fall armyworm damage on young maize. What worked for you last season?")
	server.SeedDiscussion(joseph, "Long rains outlook", "Forecast says late onset. Anyone switching to shorter-season varieties?")

	logger.Info("seeded demo data", "accounts", 2, "password", "password1")
}
