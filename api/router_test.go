package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tonobo/autopilot"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	cfg := autopilot.DefaultConfig()
	cfg.Cols, cfg.Rows = 5, 5
	return New(cfg, log.New(io.Discard, "", 0)).Engine()
}

func post(t *testing.T, e *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMove(t *testing.T) {
	rec := post(t, newEngine(), "/move", `{"body": [[2, 2]], "food": [4, 2], "score": 0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Move     string           `json:"move"`
		Path     []autopilot.Cell `json:"path"`
		Fallback bool             `json:"fallback"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Move != "right" || resp.Fallback || len(resp.Path) != 3 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestMoveFailures(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		reason autopilot.Reason
	}{
		{"trapped", `{"body": [[0, 0], [1, 0], [1, 1], [0, 1]], "food": [3, 3]}`,
			http.StatusUnprocessableEntity, autopilot.ReasonNoSafeMove},
		{"no food", `{"body": [[2, 2]]}`,
			http.StatusUnprocessableEntity, autopilot.ReasonPerceptionLost},
		{"game over", `{"game_over": true}`,
			http.StatusConflict, autopilot.ReasonGameOver},
		{"schema violation", `{"snake": [[2, 2]]}`, http.StatusBadRequest, ""},
		{"wrapped snapshot", `{"snapshot": {"body": [[2, 2]], "food": [4, 2]}}`, http.StatusBadRequest, ""},
		{"not json", `{`, http.StatusBadRequest, ""},
	}
	e := newEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, e, "/move", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status %d, want %d: %s", rec.Code, tc.status, rec.Body)
			}
			if tc.reason == "" {
				return
			}
			var resp struct {
				Reason autopilot.Reason `json:"reason"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", resp.Reason, tc.reason)
			}
		})
	}
}

func TestStartPingEnd(t *testing.T) {
	e := newEngine()
	rec := post(t, e, "/start", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status %d", rec.Code)
	}
	var start struct {
		Session string `json:"session"`
		Cols    int    `json:"cols"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &start); err != nil {
		t.Fatal(err)
	}
	if start.Session == "" || start.Cols != 5 {
		t.Fatalf("start = %+v", start)
	}
	for _, p := range []string{"/ping", "/end?session=" + start.Session} {
		if rec := post(t, e, p, `{}`); rec.Code != http.StatusOK {
			t.Fatalf("%s status %d", p, rec.Code)
		}
	}
}
