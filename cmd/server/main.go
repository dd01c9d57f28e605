package main

import (
	_ "eventplanner/docs"

	"eventplanner/cmd/server/cmd"
)

// @title           Event Planner API
// @version         1.0
// @description     Events, categories and capacity-checked registrations with JWT auth
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cmd.Execute()
}
