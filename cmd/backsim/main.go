package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/rustyeddy/backsim/cmd/backsim/cmd"
)

func main() {
	// Optional .env with BINANCE_API_KEY / BINANCE_SECRET_KEY; public
	// historical endpoints work without keys.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
