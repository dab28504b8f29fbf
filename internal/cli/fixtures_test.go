package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestFixturesServe_MissingFile(t *testing.T) {
	origFile := fixturesFile
	defer func() { fixturesFile = origFile }()
	fixturesFile = filepath.Join(t.TempDir(), "missing.yaml")

	err := fixturesServeCmd.RunE(fixturesServeCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "loading fixtures") {
		t.Fatalf("expected fixture loading error, got %v", err)
	}
}

func TestFixturesServe_BadAddress(t *testing.T) {
	origFile, origAddr := fixturesFile, fixturesAddr
	defer func() { fixturesFile, fixturesAddr = origFile, origAddr }()
	fixturesFile = ""
	fixturesAddr = "not-an-address"

	err := fixturesServeCmd.RunE(fixturesServeCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "listening on") {
		t.Fatalf("expected listen error, got %v", err)
	}
}
