package main

import "github.com/joho/godotenv"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A .env next to the binary's working directory may carry TERMDESK_* overrides.
	godotenv.Load()

	Execute()
}
