package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.cfg")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if got, _ := cfg.get("BASIC", "rng_seed"); got != "12345" {
		t.Errorf("rng_seed = %q, want 12345", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "[BASIC]") || !strings.Contains(text, "max_sessions = 20") {
		t.Errorf("default config missing BASIC section:\n%s", text)
	}
	if strings.Index(text, "[Server]") > strings.Index(text, "[Debug]") {
		t.Errorf("sections not written in canonical order")
	}

	// Die geschriebene Datei muss sich wieder einlesen lassen
	reloaded, err := loadConfig(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got, _ := reloaded.get("Network", "pong_timeout"); got != "90s" {
		t.Errorf("pong_timeout after reload = %q, want 90s", got)
	}
}

func TestParseINI(t *testing.T) {
	input := `
; comment
# another comment
orphan = ignored
[BASIC]
rng_seed = 42
 max_sessions=3
[Auth]
console_password_hash = $2a$12$abc=def
[BASIC]
rng_seed = 7
`
	settings := make(map[string]map[string]string)
	if err := parseINI(strings.NewReader(input), settings); err != nil {
		t.Fatalf("parseINI failed: %v", err)
	}

	tests := []struct {
		section, key, want string
	}{
		{"BASIC", "rng_seed", "7"},
		{"BASIC", "max_sessions", "3"},
		{"Auth", "console_password_hash", "$2a$12$abc=def"},
	}
	for _, test := range tests {
		t.Run(test.section+"."+test.key, func(t *testing.T) {
			if got := settings[test.section][test.key]; got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
	if _, exists := settings[""]; exists {
		t.Errorf("keys outside a section must be ignored")
	}
}

func TestLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "settings.cfg")
	local := filepath.Join(dir, "settings.local.cfg")
	if err := os.WriteFile(base, []byte("[BASIC]\nrng_seed = 1\nmax_sessions = 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(local, []byte("[BASIC]\nrng_seed = 99\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(base)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if err := cfg.loadLocalConfig(local); err != nil {
		t.Fatalf("loadLocalConfig failed: %v", err)
	}
	if got, _ := cfg.get("BASIC", "rng_seed"); got != "99" {
		t.Errorf("rng_seed = %q, want 99", got)
	}
	if got, _ := cfg.get("BASIC", "max_sessions"); got != "4" {
		t.Errorf("max_sessions = %q, want 4", got)
	}
}

func TestGettersWithoutInitialization(t *testing.T) {
	if globalConfig != nil {
		t.Skip("global configuration already initialized")
	}
	if got := GetInt("BASIC", "rng_seed", 12345); got != 12345 {
		t.Errorf("GetInt default = %d", got)
	}
	if got := GetStringList("WebSocket", "allowed_origins", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("GetStringList default = %v", got)
	}
}
