package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/antibyte/retrobasic/pkg/auth"
	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/console"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/terminal"
	"github.com/antibyte/retrobasic/pkg/tinyos"
	tlsmanager "github.com/antibyte/retrobasic/pkg/tls"
)

func main() {
	configPath := flag.String("config", "settings.cfg", "path to the configuration file")
	consoleMode := flag.Bool("console", false, "run a single session on this terminal instead of serving websockets")
	flag.Parse()

	// Konfiguration vor allen anderen Initialisierungen laden
	if err := configuration.Initialize(*configPath); err != nil {
		fmt.Printf("Error initializing configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logger.ConfigInfo("System started - Configuration loaded from: %s", *configPath)

	journalPath := configuration.GetString("Database", "journal_path", "data/journal.db")
	db, err := tinyos.InitDB(journalPath)
	if err != nil {
		logger.Fatal(logger.AreaDatabase, "Database initialization failed: %v", err)
	}
	defer db.Close()

	if err := tinyos.CreateTables(db); err != nil {
		logger.Fatal(logger.AreaDatabase, "Table creation failed: %v", err)
	}
	logger.Info(logger.AreaDatabase, "Run journal ready at %s", journalPath)

	tinyOSInstance := tinyos.NewTinyOS(tinyos.NewJournal(db))

	if *consoleMode {
		if err := console.Run(tinyOSInstance, os.Stdin, os.Stdout); err != nil {
			logger.Error(logger.AreaTerminal, "Console stopped: %v", err)
			fmt.Println(err)
			os.Exit(1)
		}
		return
	}

	// Jede Verbindung bekommt ihre eigene Session mit eigenem Interpreter
	handler := terminal.NewTerminalHandler(tinyOSInstance)

	staticDir := configuration.GetString("Server", "static_dir", "static")
	http.HandleFunc("/api/auth/session", auth.HandleCreateSession)
	http.HandleFunc("/ws", handler.HandleWebSocket)
	http.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	// Root-Route muss zuletzt registriert werden
	http.HandleFunc("/", serveStatic(staticDir))

	tlsManager, err := tlsmanager.NewManager(tlsmanager.LoadSettings())
	if err != nil {
		logger.Fatal(logger.AreaSecurity, "TLS manager initialization failed: %v", err)
	}
	if err := tlsManager.Serve(http.DefaultServeMux); err != nil {
		logger.Fatal(logger.AreaGeneral, "Server stopped: %v", err)
	}
}

// serveStatic serves index.html for "/" and other files below dir.
func serveStatic(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			if strings.Contains(r.URL.Path, "..") {
				http.NotFound(w, r)
				return
			}
			files.ServeHTTP(w, r)
			return
		}

		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			logger.Error(logger.AreaGeneral, "index.html not found in %s", dir)
			http.Error(w, "Main HTML file not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, index)
	}
}
