package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/http/handlers"
)

type bindPayload struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Age      int    `json:"age" binding:"omitempty,min=0"`
}

func bindEcho(ctx *gin.Context) {
	var req bindPayload

	if !handlers.BindJSON(ctx, &req) {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func TestBindJSONValidationErrorsUseJSONNames(t *testing.T) {
	r := setupRouter(http.MethodPost, "/bind", nil, bindEcho)

	w := doJSON(t, r, http.MethodPost, "/bind", `{"username": "ab", "email": "not-an-email"}`)

	mustStatus(t, w, http.StatusBadRequest)

	body := decodeBody(t, w)

	e := body["error"].(map[string]any)
	details := e["details"].(map[string]any)
	fields := details["fields"].([]any)

	if len(fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(fields), fields)
	}

	names := map[string]bool{}
	for _, f := range fields {
		m := f.(map[string]any)
		names[m["field"].(string)] = true
	}

	if !names["username"] || !names["email"] {
		t.Fatalf("field errors should use json names, got %v", names)
	}
}

func TestBindJSONSyntaxError(t *testing.T) {
	r := setupRouter(http.MethodPost, "/bind", nil, bindEcho)

	w := doJSON(t, r, http.MethodPost, "/bind", `{"username": `)

	mustStatus(t, w, http.StatusBadRequest)

	if code := errorCode(t, w); code != "invalid_request" {
		t.Fatalf("error code = %q", code)
	}
}

func TestBindJSONTypeMismatch(t *testing.T) {
	r := setupRouter(http.MethodPost, "/bind", nil, bindEcho)

	w := doJSON(t, r, http.MethodPost, "/bind", `{"username": "jdoe", "email": "jdoe@example.com", "age": "old"}`)

	mustStatus(t, w, http.StatusBadRequest)
}

func TestBindJSONValidPayloadPasses(t *testing.T) {
	r := setupRouter(http.MethodPost, "/bind", nil, bindEcho)

	w := doJSON(t, r, http.MethodPost, "/bind", `{"username": "jdoe", "email": "jdoe@example.com", "age": 30}`)

	mustStatus(t, w, http.StatusOK)
}
