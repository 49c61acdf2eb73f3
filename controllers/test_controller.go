package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"user_server_go/jsonconv"
	"user_server_go/models"
)

// maxBodyBytes caps request bodies read by the handlers.
const maxBodyBytes = 1 << 20

// TestResponse answers GET /test with {"e":0}.
func (a *API) TestResponse(w http.ResponseWriter, r *http.Request) {
	a.respond(w, models.NewResponse(models.CodeSuccess))
}

type testGetData struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
}

// TestGet echoes the integer "id" header and the "key" query parameter.
func (a *API) TestGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.Header.Get("id"))
	if err != nil {
		a.fail(w, r, fmt.Errorf("bad id header: %w", err))
		return
	}
	a.respond(w, models.NewDataResponse(models.CodeSuccess, testGetData{
		ID:  id,
		Key: r.URL.Query().Get("key"),
	}))
}

// TestPost echoes a JSON object body back, compacted.
func (a *API) TestPost(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	obj, err := jsonconv.ParseObject(a.json, body)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, models.NewDataResponse(models.CodeSuccess, obj))
}

func readBody(r *http.Request) (string, error) {
	defer r.Body.Close()
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}
