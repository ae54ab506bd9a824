package main

import "github.com/eleven-am/agent-widget/internal/bootstrap"

// @title Agent Widget API
// @version 1.0.0
// @description Embeddable chat widget backend for developer-built agents

// @BasePath /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name X-API-Key

func main() {
	bootstrap.Run()
}
