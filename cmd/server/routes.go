package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"datalist/internal/db"
	"datalist/internal/form"
	"datalist/internal/logger"
	"datalist/internal/lookup"
	"datalist/pkg/config"
)

// server holds the host's state: the active connection and the settings the
// connect endpoint may replace.
type server struct {
	mu   sync.RWMutex
	cfg  config.AppConfig
	host *db.Host
	svc  *lookup.Service
	page *form.Page
}

func newServer(cfg config.AppConfig, host *db.Host) *server {
	cfg.ApplyDefaults()
	svc := lookup.NewService(host,
		lookup.WithDefaultLimit(cfg.Lookup.DefaultLimit),
		lookup.WithTimeout(time.Duration(cfg.Lookup.TimeoutSeconds)*time.Second),
		lookup.WithAllowedTables(cfg.Lookup.AllowedTables...),
	)
	return &server{
		cfg:  cfg,
		host: host,
		svc:  svc,
		page: &form.Page{
			Source:          host,
			Overrides:       cfg.Lookup.Annotations,
			Keywords:        cfg.Lookup.Keywords,
			CommentsEnabled: cfg.Lookup.Comments(),
			Field:           cfg.Lookup.Field,
			Placeholder:     cfg.Lookup.Placeholder,
			AssetPrefix:     "/static/",
		},
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// any POST carrying the reserved field is a lookup, whatever the route
	r.Use(lookup.Intercept(s.svc, s.cfg.Lookup.Field))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(form.Assets())))
	r.Method(http.MethodGet, "/edit", s.page)
	r.Method(http.MethodHead, "/edit", s.page)

	r.Get("/api/getConnect", s.getConnect)
	r.Post("/api/connect", s.connect)
	r.Get("/api/fields/{table}", s.fields)
	r.Method(http.MethodPost, "/api/lookup", lookup.Handler(s.svc, s.cfg.Lookup.Field))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write response: %v", err)
	}
}

// getConnect returns the database settings in use.
func (s *server) getConnect(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	dbCfg := s.cfg.Database
	s.mu.RUnlock()
	dbCfg.Type = config.NormalizeDriver(dbCfg.Type)

	writeJSON(w, http.StatusOK, struct {
		OK     bool            `json:"ok"`
		Config config.DBConfig `json:"config"`
	}{OK: true, Config: dbCfg})
}

// connect opens the posted database and makes it the active connection.
func (s *server) connect(w http.ResponseWriter, r *http.Request) {
	var dbReq config.DBConfig
	if err := json.NewDecoder(r.Body).Decode(&dbReq); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	driver, dsn, err := config.BuildDriverAndDSN(dbReq)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	timeout := s.cfg.Server.ConnectTimeout
	s.mu.RUnlock()
	c, err := db.Connect(driver, dsn, timeout)
	if err != nil {
		logger.Error("connect %s: %v", driver, err)
		http.Error(w, "connection failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.host.SetActive(c)

	s.mu.Lock()
	s.cfg.Database = dbReq
	s.mu.Unlock()
	logger.Info("active connection is now %s", c.Driver)

	writeJSON(w, http.StatusOK, struct {
		OK     bool   `json:"ok"`
		Driver string `json:"driver"`
	}{OK: true, Driver: c.Driver})
}

// fields returns a table's form fields with annotations resolved.
func (s *server) fields(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	f, err := s.page.Form(r.Context(), table)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, db.ErrNoConnection) {
			status = http.StatusBadRequest
		}
		http.Error(w, "failed to read fields: "+err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
