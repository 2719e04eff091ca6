package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
)

// auth logging on success and failure
func TestAuthLogging(t *testing.T) {
	app, _ := newApp(t)

	run := func(email, pass string) []logEntry {
		return captureLogs(t, func() {
			do(t, app, "POST", "/api/session/signin", fiber.Map{"email": email, "password": pass})
		})
	}

	failLogs := run("demo@quickthrift.com", "badpass!")
	e := findLog(failLogs, "auth.login.fail")
	if e == nil {
		t.Fatalf("auth.login.fail log not found in %+v", failLogs)
	}
	if _, ok := e.Fields["email"]; !ok {
		t.Fatalf("auth.login.fail missing email field")
	}
	if e.Fields["reason"] != "invalid_credentials" {
		t.Fatalf("unexpected reason: %v", e.Fields["reason"])
	}
	for _, l := range failLogs {
		if _, ok := l.Fields["password"]; ok {
			t.Fatalf("password logged by %s", l.Action)
		}
	}

	successLogs := run("demo@quickthrift.com", "demo123")
	e = findLog(successLogs, "auth.login.success")
	if e == nil {
		t.Fatalf("auth.login.success log not found")
	}
	if e.Level != "audit" || e.UserID != "u-demo" {
		t.Fatalf("success entry: %+v", e)
	}
	if findLog(successLogs, "auth.signin.fallback") == nil {
		t.Fatal("local fallback not logged")
	}
}
