package configuration

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config verwaltet die Anwendungskonfiguration
type Config struct {
	settings map[string]map[string]string
	filePath string
	mu       sync.RWMutex
}

// LocalConfigFile overrides values of the main configuration when present.
const LocalConfigFile = "settings.local.cfg"

var (
	globalConfig *Config
	once         sync.Once
)

// sectionOrder is the order in which sections are written to disk.
var sectionOrder = []string{"Server", "TLS", "WebSocket", "Network", "JWT", "Auth", "Security", "BASIC", "Database", "Debug"}

// Initialize initialisiert die globale Konfiguration
func Initialize(configPath string) error {
	var err error
	once.Do(func() {
		globalConfig, err = loadConfig(configPath)
		if err != nil {
			return
		}
		if _, statErr := os.Stat(LocalConfigFile); statErr == nil {
			// Fehler in der lokalen Datei sind nicht fatal, die Basis-Konfiguration bleibt gültig
			_ = globalConfig.loadLocalConfig(LocalConfigFile)
		}
	})
	return err
}

// loadConfig lädt die Konfiguration aus einer Datei
func loadConfig(filePath string) (*Config, error) {
	config := &Config{
		settings: make(map[string]map[string]string),
		filePath: filePath,
	}
	// Prüfe, ob die Datei existiert
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		config.createDefaultConfig()
		if err := config.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := parseINI(file, config.settings); err != nil {
		return nil, err
	}
	return config, nil
}

// loadLocalConfig lädt lokale Konfigurationsüberschreibungen
func (c *Config) loadLocalConfig(filePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return parseINI(file, c.settings)
}

// parseINI reads "[Section]" headers and "key = value" pairs into settings.
// Later values overwrite earlier ones. Lines starting with ';' or '#' are comments.
func parseINI(r io.Reader, settings map[string]map[string]string) error {
	scanner := bufio.NewScanner(r)
	currentSection := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			if settings[currentSection] == nil {
				settings[currentSection] = make(map[string]string)
			}
			continue
		}

		// Schlüssel außerhalb einer Sektion werden ignoriert
		if currentSection == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		settings[currentSection][strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return scanner.Err()
}

// createDefaultConfig erstellt die Standard-Konfiguration mit nur den verwendeten Parametern
func (c *Config) createDefaultConfig() {
	c.settings["Server"] = map[string]string{
		"listen_addr": ":8080",
		"static_dir":  "static",
	}

	// Ohne enable_tls läuft nur der HTTP-Server auf listen_addr
	c.settings["TLS"] = map[string]string{
		"enable_tls":           "false",
		"enable_letsencrypt":   "false",
		"domain":               "",
		"letsencrypt_email":    "",
		"cert_cache_dir":       "./certs",
		"cert_file":            "./certs/server.crt",
		"key_file":             "./certs/server.key",
		"https_addr":           ":8443",
		"force_https_redirect": "false",
	}

	c.settings["WebSocket"] = map[string]string{
		"allowed_origins":   "http://localhost:8080,http://127.0.0.1:8080",
		"read_buffer_size":  "1024",
		"write_buffer_size": "1024",
	}

	c.settings["Network"] = map[string]string{
		"pong_timeout":        "90s",
		"write_wait_timeout":  "10s",
		"max_message_size_kb": "64",
		"max_channel_buffer":  "1000",
		"max_pending_lines":   "32",
	}

	// secret_key leer lassen: dann wird JWT_SECRET_KEY aus der Umgebung verwendet
	c.settings["JWT"] = map[string]string{
		"secret_key":             "",
		"token_expiration_hours": "24",
	}

	// Leerer Hash bedeutet: keine Passwortabfrage
	c.settings["Auth"] = map[string]string{
		"console_password_hash": "",
		"password_hash_cost":    "12",
	}

	// Limits pro Minute und Session
	c.settings["Security"] = map[string]string{
		"max_sessions_per_ip":  "5",
		"rate_limit_messages":  "600",
		"rate_limit_bandwidth": "65536",
	}

	c.settings["BASIC"] = map[string]string{
		"rng_seed":     "12345",
		"max_sessions": "20",
	}

	c.settings["Database"] = map[string]string{
		"journal_path": "data/journal.db",
	}

	c.settings["Debug"] = map[string]string{
		"enable_debug_logging": "true",
		"log_level":            "INFO",
		"log_file":             "debug.log",
		"max_log_size_mb":      "10",
		"log_rotation_count":   "3",
		// Selektive Logging-Bereiche
		"log_websocket": "false",
		"log_terminal":  "false",
		"log_auth":      "true",
		"log_tinybasic": "false",
		"log_database":  "false",
		"log_session":   "true",
		"log_config":    "true",
		"log_security":  "true",
		"log_general":   "true",
	}
}

// saveToFile speichert die aktuelle Konfiguration in die Datei
func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(c.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprint(w, "; TinyOS BASIC Configuration File\n")
	fmt.Fprint(w, "; Generated automatically - modify with care\n")
	fmt.Fprint(w, ";\n\n")

	for _, section := range c.orderedSections() {
		settings := c.settings[section]
		fmt.Fprintf(w, "[%s]\n", section)

		keys := make([]string, 0, len(settings))
		for key := range settings {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "%s = %s\n", key, settings[key])
		}
		fmt.Fprint(w, "\n")
	}

	return w.Flush()
}

// orderedSections returns the known sections first, then any others alphabetically.
func (c *Config) orderedSections() []string {
	known := make(map[string]bool, len(sectionOrder))
	var result []string
	for _, section := range sectionOrder {
		known[section] = true
		if _, exists := c.settings[section]; exists {
			result = append(result, section)
		}
	}
	var extra []string
	for section := range c.settings {
		if !known[section] {
			extra = append(extra, section)
		}
	}
	sort.Strings(extra)
	return append(result, extra...)
}

// get reads a single value from this configuration.
func (c *Config) get(section, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if sectionMap, exists := c.settings[section]; exists {
		value, exists := sectionMap[key]
		return value, exists
	}
	return "", false
}

// GetString gibt einen String-Wert aus der Konfiguration zurück
func GetString(section, key, defaultValue string) string {
	if globalConfig == nil {
		return defaultValue
	}
	if value, ok := globalConfig.get(section, key); ok {
		return value
	}
	return defaultValue
}

// GetInt gibt einen Integer-Wert aus der Konfiguration zurück
func GetInt(section, key string, defaultValue int) int {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := strconv.Atoi(str); err == nil {
		return value
	}

	return defaultValue
}

// GetBool gibt einen Boolean-Wert aus der Konfiguration zurück
func GetBool(section, key string, defaultValue bool) bool {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := strconv.ParseBool(str); err == nil {
		return value
	}

	return defaultValue
}

// GetDuration gibt einen Duration-Wert aus der Konfiguration zurück
func GetDuration(section, key string, defaultValue time.Duration) time.Duration {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := time.ParseDuration(str); err == nil {
		return value
	}

	return defaultValue
}

// GetStringList splits a comma separated value and drops empty entries.
func GetStringList(section, key string, defaultValue []string) []string {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(str, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// SetString setzt einen String-Wert in der Konfiguration
func SetString(section, key, value string) {
	if globalConfig == nil {
		return
	}

	globalConfig.mu.Lock()
	defer globalConfig.mu.Unlock()

	if globalConfig.settings[section] == nil {
		globalConfig.settings[section] = make(map[string]string)
	}

	globalConfig.settings[section][key] = value
}
