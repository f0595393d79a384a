package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"mealbridge/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

// DonationStore is the record store surface the HTTP layer consumes.
type DonationStore interface {
	Donations(ctx context.Context) ([]*types.DonationRecord, error)
	Donation(ctx context.Context, donationID string) (*types.DonationRecord, error)
	CreateDonation(ctx context.Context, donation *types.DonationRecord) error
	UpdateDonation(ctx context.Context, donationID string, patch types.DonationPatch) (*types.DonationRecord, error)
}

// GeocodeResolver converts between addresses and coordinates.
type GeocodeResolver interface {
	Resolve(ctx context.Context, address string) *types.Coordinates
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	donations DonationStore
	resolver  GeocodeResolver
	templates *template.Template

	cookie *securecookie.SecureCookie

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	donations DonationStore,
	resolver GeocodeResolver,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger:    logger,
		config:    config,
		donations: donations,
		resolver:  resolver,
		cookie:    securecookie.New(hashKey, blockKey),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/", s.handleHome, http.MethodGet)

	r.HandleFunc("/donate", s.handleGetDonate, http.MethodGet)
	r.HandleFunc("/donate", s.handlePostDonate, http.MethodPost)
	r.HandleFunc("/browse", s.handleBrowse, http.MethodGet)
	r.HandleFunc("/donations/:id/accept", s.handleAcceptDonation, http.MethodPost)
	r.HandleFunc("/donations/:id/complete", s.handleCompleteDonation, http.MethodPost)

	// Record store JSON API
	r.HandleFunc("/api/donations", s.handleAPIListDonations, http.MethodGet)
	r.HandleFunc("/api/donations", s.handleAPICreateDonation, http.MethodPost)
	r.HandleFunc("/api/donations/:id", s.handleAPIUpdateDonation, http.MethodPut)

	r.HandleFunc("/api/geocode", s.handleAPIGeocode, http.MethodGet)
	r.HandleFunc("/api/reverse-geocode", s.handleAPIReverseGeocode, http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"printDistance": func(km float64) string {
			return fmt.Sprintf("%.1f km", km)
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}
