// Package tls puts the HTTP routes behind HTTPS, either with certificate
// files or with Let's Encrypt via autocert.
package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"golang.org/x/crypto/acme/autocert"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
)

// Settings mirrors the [TLS] section.
type Settings struct {
	Enabled       bool
	LetsEncrypt   bool
	Domain        string
	Email         string
	CacheDir      string
	CertFile      string
	KeyFile       string
	HTTPAddr      string
	HTTPSAddr     string
	ForceRedirect bool
}

// Manager builds the servers for the configured TLS mode.
type Manager struct {
	settings    Settings
	autocertMgr *autocert.Manager
}

// LoadSettings reads [TLS] and the plain listen address from [Server].
func LoadSettings() Settings {
	return Settings{
		Enabled:       configuration.GetBool("TLS", "enable_tls", false),
		LetsEncrypt:   configuration.GetBool("TLS", "enable_letsencrypt", false),
		Domain:        strings.TrimSpace(configuration.GetString("TLS", "domain", "")),
		Email:         strings.TrimSpace(configuration.GetString("TLS", "letsencrypt_email", "")),
		CacheDir:      configuration.GetString("TLS", "cert_cache_dir", "./certs"),
		CertFile:      configuration.GetString("TLS", "cert_file", "./certs/server.crt"),
		KeyFile:       configuration.GetString("TLS", "key_file", "./certs/server.key"),
		HTTPAddr:      configuration.GetString("Server", "listen_addr", ":8080"),
		HTTPSAddr:     configuration.GetString("TLS", "https_addr", ":8443"),
		ForceRedirect: configuration.GetBool("TLS", "force_https_redirect", false),
	}
}

// NewManager validates settings and prepares autocert when requested.
func NewManager(settings Settings) (*Manager, error) {
	m := &Manager{settings: settings}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("TLS configuration invalid: %w", err)
	}
	if settings.Enabled && settings.LetsEncrypt {
		if err := os.MkdirAll(settings.CacheDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create certificate cache directory: %w", err)
		}
		m.autocertMgr = &autocert.Manager{
			Cache:      autocert.DirCache(settings.CacheDir),
			Prompt:     autocert.AcceptTOS,
			Email:      settings.Email,
			HostPolicy: autocert.HostWhitelist(settings.Domain, "www."+settings.Domain),
		}
		logger.Info(logger.AreaSecurity, "Let's Encrypt enabled for domain %s", settings.Domain)
	}
	return m, nil
}

func (m *Manager) validate() error {
	s := m.settings
	if !s.Enabled {
		return nil
	}
	if s.LetsEncrypt {
		if s.Domain == "" {
			return errors.New("domain is required when Let's Encrypt is enabled")
		}
		if s.Email == "" {
			return errors.New("letsencrypt_email is required when Let's Encrypt is enabled")
		}
		return nil
	}
	for _, f := range []string{s.CertFile, s.KeyFile} {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("certificate file %s: %w", f, err)
		}
	}
	return nil
}

// Enabled reports whether HTTPS is served.
func (m *Manager) Enabled() bool {
	return m.settings.Enabled
}

// TLSConfig returns the server TLS configuration, nil without TLS.
func (m *Manager) TLSConfig() *tls.Config {
	if !m.settings.Enabled {
		return nil
	}
	config := &tls.Config{MinVersion: tls.VersionTLS12, NextProtos: []string{"h2", "http/1.1"}}
	if m.autocertMgr != nil {
		config.GetCertificate = m.autocertMgr.GetCertificate
		config.NextProtos = append(config.NextProtos, "acme-tls/1")
	}
	return config
}

// HTTPHandler returns what the plain HTTP listener serves: the app itself
// without TLS, otherwise ACME challenges and/or the HTTPS redirect.
func (m *Manager) HTTPHandler(app http.Handler) http.Handler {
	if !m.settings.Enabled {
		return app
	}
	var fallback http.Handler = app
	if m.settings.ForceRedirect {
		fallback = m.redirectHandler()
	}
	if m.autocertMgr != nil {
		return m.autocertMgr.HTTPHandler(fallback)
	}
	return fallback
}

func (m *Manager) redirectHandler() http.Handler {
	_, httpsPort, _ := net.SplitHostPort(m.settings.HTTPSAddr)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		target := "https://" + host
		if httpsPort != "" && httpsPort != "443" {
			target += ":" + httpsPort
		}
		target += r.URL.RequestURI()
		logger.Debug(logger.AreaSecurity, "Redirecting HTTP to HTTPS: %s -> %s", r.URL, target)
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}

// Serve runs the HTTP listener and, with TLS enabled, the HTTPS listener.
// It returns when either of them fails.
func (m *Manager) Serve(app http.Handler) error {
	errc := make(chan error, 2)

	go func() {
		logger.Info(logger.AreaGeneral, "Starting HTTP server on %s", m.settings.HTTPAddr)
		errc <- http.ListenAndServe(m.settings.HTTPAddr, m.HTTPHandler(app))
	}()

	if m.settings.Enabled {
		go func() {
			server := &http.Server{Addr: m.settings.HTTPSAddr, Handler: app, TLSConfig: m.TLSConfig()}
			logger.Info(logger.AreaSecurity, "Starting HTTPS server on %s", m.settings.HTTPSAddr)
			if m.autocertMgr != nil {
				errc <- server.ListenAndServeTLS("", "")
				return
			}
			errc <- server.ListenAndServeTLS(m.settings.CertFile, m.settings.KeyFile)
		}()
	}

	return <-errc
}
