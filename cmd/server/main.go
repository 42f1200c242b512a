package main

import (
	"errors"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mkuznet/groupblog/internal/server"
)

func main() {
	srv := server.NewServer()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}
