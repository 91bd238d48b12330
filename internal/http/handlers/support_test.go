package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/audit"
	"github.com/peopleops/hrhub/internal/authz"
	"github.com/peopleops/hrhub/internal/http/middlewares"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuditStore collects entries so tests can assert on what got audited.

type fakeAuditStore struct {
	entries []audit.Entry
}

func (f *fakeAuditStore) Insert(ctx context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func newTestRecorder() (*audit.Recorder, *fakeAuditStore) {
	store := &fakeAuditStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return audit.NewRecorder(store, log, nil), store
}

// asActor injects an authenticated identity the way the auth middleware
// would.

func asActor(actor authz.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxActor, actor)
		c.Next()
	}
}

func setupRouter(method, path string, mws []gin.HandlerFunc, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	chain := append([]gin.HandlerFunc{}, mws...)
	chain = append(chain, h)

	r.Handle(method, path, chain...)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any

	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, w.Body.String())
	}

	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	body := decodeBody(t, w)

	e, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in response: %s", w.Body.String())
	}

	code, _ := e["code"].(string)
	return code
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("status = %d, want %d\nbody: %s", w.Code, want, w.Body.String())
	}
}
