package controllers

import (
	"net/http"

	"user_server_go/models"
)

// HealthCheck reports that the server is up.
func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) {
	a.respond(w, models.NewDataResponse(models.CodeSuccess, map[string]string{"status": "OK"}))
}
