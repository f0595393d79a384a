package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Browse pipeline
	PollIntervalSec uint `envconfig:"POLL_INTERVAL_SEC" default:"10"`

	// Geocoding providers, in fallback order. Pelias is skipped when no
	// API key is configured.
	NominatimBaseURL string `envconfig:"NOMINATIM_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	PhotonBaseURL    string `envconfig:"PHOTON_BASE_URL" default:"https://photon.komoot.io"`
	PeliasBaseURL    string `envconfig:"PELIAS_BASE_URL" default:"https://api.geocode.earth"`
	PeliasAPIKey     string `envconfig:"PELIAS_API_KEY"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
