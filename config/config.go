package config

import "time"

type Config struct {
	Web     Web
	DB      DB
	Auth    Auth
	Oauth   Oauth
	Storage Storage
	Email   Email
	Cors    Cors
	Log     Log
	Rate    Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:notes"`
	DisableTLS bool   `conf:"default:true"`
	Migrate    bool   `conf:"default:true"`
}

type Auth struct {
	TokenSecret  string        `conf:"required,mask"`
	TokenTimeout time.Duration `conf:"default:24h"`

	// AdminEmail bootstraps the first administrator: a signup or OAuth
	// login with this address is provisioned with the admin role.
	AdminEmail string `conf:""`
}

type OauthProvider struct {
	Client      string `conf:""`
	Secret      string `conf:",mask"`
	URL         string `conf:""`
	RedirectURL string `conf:""`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:/"`
	Google           OauthProvider
}

type Storage struct {
	Root          string        `conf:"default:/var/lib/notes/files"`
	SigningSecret string        `conf:"required,mask"`
	BaseURL       string        `conf:"default:http://localhost:8000"`
	GrantTTL      time.Duration `conf:"default:15m"`
	OpTimeout     time.Duration `conf:"default:10s"`
}

type Email struct {
	Host         string `conf:""`
	Port         string `conf:"default:587"`
	Address      string `conf:""`
	Password     string `conf:",mask"`
	AdminAddress string `conf:""`
}

type Cors struct {
	Origin string `conf:""`
}

type Log struct {
	File       string `conf:""`
	MaxSizeMB  int    `conf:"default:50"`
	MaxBackups int    `conf:"default:3"`
	MaxAgeDays int    `conf:"default:28"`
}

type Rate struct {
	Burst    int           `conf:"default:10"`
	Interval time.Duration `conf:"default:500ms"`
	IdleTTL  time.Duration `conf:"default:60m"`
}
