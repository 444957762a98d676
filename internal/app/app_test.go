package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/tick/internal/appsynctest"
	"github.com/five82/tick/internal/auth"
	"github.com/five82/tick/internal/todo"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"TICK_ENDPOINT", "TICK_REALTIME_ENDPOINT", "TICK_API_KEY", "TICK_AUTH_MODE",
		"TICK_ID_TOKEN", "TICK_ID_TOKEN_FILE", "TICK_LOG_FILE", "TICK_MUTATION_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestConnect_APIKeyFetchesFromBackend(t *testing.T) {
	isolate(t)
	srv := appsynctest.NewServer("test-key")
	t.Cleanup(srv.Close)
	srv.Seed(todo.Item{ID: "a", Name: "milk", Description: "2l"})

	var logs bytes.Buffer
	env, err := Setup(Options{
		ConfigPath: writeConfig(t, "endpoint = \""+srv.URL()+"\"\napi_key = \"test-key\"\n"),
		LogOutput:  &logs,
	})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	defer env.Close()

	ctrl, user, err := env.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	defer ctrl.Close()
	if user != "" {
		t.Fatalf("user = %q, want empty for api key auth", user)
	}

	ctrl.FetchAll(context.Background())
	snap := env.Store.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != "a" {
		t.Fatalf("items = %#v, want [a]", snap.Items)
	}
	if !strings.Contains(logs.String(), "fetched 1 todos") {
		t.Fatalf("log missing fetch line:\n%s", logs.String())
	}
}

func TestConnect_UserPoolWithoutTokenNeedsLogin(t *testing.T) {
	home := isolate(t)

	env, err := Setup(Options{
		ConfigPath: writeConfig(t, "endpoint = \"https://example.invalid/graphql\"\nauth_mode = \"user_pool\"\n"),
		LogOutput:  &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	_, _, err = env.Connect(context.Background())
	if !errors.Is(err, auth.ErrNoSession) {
		t.Fatalf("Connect error = %v, want ErrNoSession", err)
	}
	if !strings.HasPrefix(env.Config.IDTokenFile, home) {
		t.Fatalf("IDTokenFile = %q, want default under HOME", env.Config.IDTokenFile)
	}
}

func TestConnect_UserPoolWithTokenFile(t *testing.T) {
	isolate(t)
	srv := appsynctest.NewServer("")
	t.Cleanup(srv.Close)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":              "u-1",
		"cognito:username": "alice",
		"exp":              time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	tokenFile := filepath.Join(t.TempDir(), "id_token")
	if err := os.WriteFile(tokenFile, []byte(token+"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	env, err := Setup(Options{
		ConfigPath: writeConfig(t, "endpoint = \""+srv.URL()+"\"\nauth_mode = \"user_pool\"\nid_token_file = \""+tokenFile+"\"\n"),
		LogOutput:  &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	ctrl, user, err := env.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	defer ctrl.Close()
	if user != "alice" {
		t.Fatalf("user = %q, want alice", user)
	}
}

func TestConnect_MissingEndpoint(t *testing.T) {
	isolate(t)
	env, err := Setup(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.toml"), LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if _, _, err := env.Connect(context.Background()); err == nil || !strings.Contains(err.Error(), "endpoint") {
		t.Fatalf("Connect error = %v, want endpoint error", err)
	}
}

func TestSetup_WritesLogFile(t *testing.T) {
	isolate(t)
	logPath := filepath.Join(t.TempDir(), "state", "tick.log")

	env, err := Setup(Options{ConfigPath: writeConfig(t, "log_file = \""+logPath+"\"\n")})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if err := env.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "session "+env.Session.String()) {
		t.Fatalf("log file missing session line:\n%s", data)
	}
}

func TestConnectUI_WrapsController(t *testing.T) {
	isolate(t)
	srv := appsynctest.NewServer("k")
	t.Cleanup(srv.Close)

	env, err := Setup(Options{
		ConfigPath: writeConfig(t, "endpoint = \""+srv.URL()+"\"\napi_key = \"k\"\n"),
		LogOutput:  &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	conn, err := env.connectUI(context.Background())
	if err != nil {
		t.Fatalf("connectUI returned error: %v", err)
	}
	defer conn.Controller.Close()

	sub, err := conn.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	if !srv.WaitSubscribers(1, 2*time.Second) {
		t.Fatalf("subscription never registered")
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
