package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	setupLogger("prod", &buf).Debug("hidden")
	setupLogger("prod", &buf).Info("shown")
	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("prod log is not a single JSON line: %q", line)
	}
	if rec["msg"] != "shown" {
		t.Errorf("got %v", rec["msg"])
	}

	buf.Reset()
	setupLogger("dev", &buf).Debug("verbose")
	if !strings.Contains(buf.String(), "msg=verbose") {
		t.Errorf("dev logger did not write text debug output: %q", buf.String())
	}
}

func TestListCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "env: dev\nstorage_path: " + filepath.Join(dir, "db", "students.db") +
		"\nlog_path: " + filepath.Join(dir, "logs", "app.log") + "\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", cfgPath)

	a, err := open(true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := a.feed.CreateStudent(context.Background(), "Ada", "ada@example.com"); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	a.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"list", "--json"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		listJSON = false
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), `"name": "Ada"`) {
		t.Errorf("list output missing record:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "logs", "app.log")); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}
