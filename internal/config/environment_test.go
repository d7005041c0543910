package config

import (
	"path/filepath"
	"testing"
)

func TestApplyEnvReadsDotenv(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, filepath.Join(tempDir, ".env"), `APPMIGRATE_STORE_DRIVER=postgres
APPMIGRATE_STORE_URL=postgres://localhost/app
APPMIGRATE_SHOW_MESSAGES=true
DATABASE_URL=postgres://localhost/app_db
`)

	config := Default()
	config.dir = tempDir

	path, err := ApplyEnv(config)
	if err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}
	if path != filepath.Join(tempDir, ".env") {
		t.Errorf("Expected .env path, got %q", path)
	}
	if config.Store.Driver != DriverPostgres {
		t.Errorf("Expected driver=postgres, got %q", config.Store.Driver)
	}
	if config.Store.URL != "postgres://localhost/app" {
		t.Errorf("Unexpected store url %q", config.Store.URL)
	}
	if config.Database.URL != "postgres://localhost/app_db" {
		t.Errorf("Unexpected database url %q", config.Database.URL)
	}
	if !config.ShowMessages {
		t.Errorf("Expected show_messages=true")
	}
}

func TestApplyEnvProcessEnvironmentWins(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, filepath.Join(tempDir, ".env"), "APPMIGRATE_ENABLED=true\nAPPMIGRATE_MANIFEST=from-dotenv.yaml\n")

	t.Setenv(EnvEnabled, "false")
	t.Setenv(EnvManifest, "from-env.yaml")

	config := Default()
	config.dir = tempDir

	if _, err := ApplyEnv(config); err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}
	if config.Enabled {
		t.Errorf("Expected process environment to disable migrations")
	}
	if config.Manifest.Path != "from-env.yaml" {
		t.Errorf("Expected manifest from process environment, got %q", config.Manifest.Path)
	}
}

func TestApplyEnvWithoutDotenv(t *testing.T) {
	config := Default()
	config.dir = t.TempDir()

	path, err := ApplyEnv(config)
	if err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}
	if path != "" {
		t.Errorf("Expected no .env path, got %q", path)
	}
	if config.Store.Driver != DriverJSON {
		t.Errorf("Expected defaults untouched, got driver %q", config.Store.Driver)
	}
}

func TestApplyEnvRejectsBadBool(t *testing.T) {
	config := Default()
	config.dir = t.TempDir()
	t.Setenv(EnvShowMessages, "maybe")

	if _, err := ApplyEnv(config); err == nil {
		t.Fatal("Expected error for non-boolean value")
	}
}
