package controllers

import (
	"errors"
	"net/http"

	"user_server_go/middleware"
	"user_server_go/models"
)

// decodeCredentials reads and validates a username/password body.
func (a *API) decodeCredentials(r *http.Request) (*models.CredentialsRequest, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	var req models.CredentialsRequest
	if err := a.json.FromString(body, &req); err != nil {
		return nil, err
	}
	if err := a.validate.Struct(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Register handles POST /user/register.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	req, err := a.decodeCredentials(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, a.users.Register(r.Context(), req.Username, req.Password))
}

// Login handles POST /user/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, err := a.decodeCredentials(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, a.users.Login(r.Context(), req.Username, req.Password))
}

// GetUser handles GET /user/get for the user resolved by Authorize.
func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		a.fail(w, r, errors.New("no authorized user in context"))
		return
	}
	a.respond(w, a.users.Get(r.Context(), id))
}
