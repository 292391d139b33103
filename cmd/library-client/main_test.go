package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// setup пишет конфиг с file-драйвером во временный каталог и поднимает бэкенд.
func setup(t *testing.T) {
	t.Helper()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    "u-1",
		"roles": []string{"ROLE_READER"},
		"exp":   1700000000,
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"` + tok + `"}`))
	})
	mux.HandleFunc("GET /books", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Full authentication is required"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("GET /rents", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := "env: prod\napi:\n  base_url: " + srv.URL + "\nstorage:\n  driver: file\n  dir: " + filepath.Join(dir, "tokens") + "\n"
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(cfg), 0o600))

	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", p)
}

func exec(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	setup(t)

	code, _, stderr := exec(t)
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "usage:")

	code, _, _ = exec(t, "fly")
	require.Equal(t, 2, code)

	code, _, _ = exec(t, "login", "-email", "a@b.c")
	require.Equal(t, 2, code)
}

func TestRun_SessionSurvivesBetweenInvocations(t *testing.T) {
	setup(t)

	code, out, _ := exec(t, "open", "/books")
	require.Equal(t, 0, code)
	var loc struct {
		Path  string
		Route struct{ Name string }
	}
	require.NoError(t, json.Unmarshal([]byte(out), &loc))
	require.Equal(t, "Login", loc.Route.Name)

	code, _, _ = exec(t, "login", "-email", "reader@example.com", "-password", "secret")
	require.Equal(t, 0, code)

	code, out, _ = exec(t, "whoami")
	require.Equal(t, 0, code)
	require.JSONEq(t, `{"user_id":"u-1","roles":["ROLE_READER"],"authenticated":true,"admin":false,
		"expires_at":"2023-11-14T22:13:20Z","expired":true}`, out)

	code, out, _ = exec(t, "get", "/books")
	require.Equal(t, 0, code)
	require.JSONEq(t, `[]`, out)

	code, _, _ = exec(t, "logout")
	require.Equal(t, 0, code)

	code, out, _ = exec(t, "whoami")
	require.Equal(t, 0, code)
	require.JSONEq(t, `{"user_id":"","roles":null,"authenticated":false,"admin":false,"expired":false}`, out)
}

func TestRun_BackendMessageShown(t *testing.T) {
	setup(t)

	code, _, stderr := exec(t, "get", "/books")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Full authentication is required")
}

func TestRun_BareUnauthorized_AsksToLogInAgain(t *testing.T) {
	setup(t)

	code, _, _ := exec(t, "login", "-email", "reader@example.com", "-password", "secret")
	require.Equal(t, 0, code)

	code, _, stderr := exec(t, "get", "/rents")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, msgRelogin)

	code, out, _ := exec(t, "whoami")
	require.Equal(t, 0, code)
	require.Contains(t, out, `"authenticated": false`)
}

func TestRun_Routes(t *testing.T) {
	setup(t)

	code, out, _ := exec(t, "routes")
	require.Equal(t, 0, code)

	var routes []struct {
		Name, Pattern string
		Meta          struct {
			RequiresAuth bool
			RequiresRole string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	require.Len(t, routes, 10)
	require.Equal(t, "Login", routes[0].Name)
	require.Equal(t, "/users/{userId}", routes[8].Pattern)
	require.Equal(t, "ROLE_ADMIN", routes[8].Meta.RequiresRole)
}
