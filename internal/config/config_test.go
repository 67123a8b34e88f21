package config

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	type want struct {
		runAddress    string
		apiURL        string
		apiToken      string
		organizerSlug string
		eventSlug     string
		operatorEmail string
	}

	tests := []struct {
		name  string
		env   map[string]string
		flags []string
		want  want
	}{
		{
			name:  "defaults",
			env:   map[string]string{},
			flags: []string{},
			want: want{
				runAddress: "localhost:8080",
			},
		},
		{
			name: "env only",
			env: map[string]string{
				"RUN_ADDRESS":           "localhost:9999",
				"PRETIX_API_URL":        "https://pretix.example.com/api/v1",
				"PRETIX_API_TOKEN":      "secret-token",
				"PRETIX_ORGANIZER_SLUG": "acme",
				"PRETIX_EVENT_SLUG":     "conf2026",
				"PRETIX_EMAIL":          "box@example.com",
			},
			flags: []string{},
			want: want{
				runAddress:    "localhost:9999",
				apiURL:        "https://pretix.example.com/api/v1",
				apiToken:      "secret-token",
				organizerSlug: "acme",
				eventSlug:     "conf2026",
				operatorEmail: "box@example.com",
			},
		},
		{
			name: "flags only",
			env:  map[string]string{},
			flags: []string{
				"-a", "localhost:7777",
				"-u", "https://flag.example.com/api/v1",
				"-t", "flag-token",
				"-o", "flag-org",
				"-e", "flag-event",
				"-m", "flag@example.com",
			},
			want: want{
				runAddress:    "localhost:7777",
				apiURL:        "https://flag.example.com/api/v1",
				apiToken:      "flag-token",
				organizerSlug: "flag-org",
				eventSlug:     "flag-event",
				operatorEmail: "flag@example.com",
			},
		},
		{
			name: "env overrides flags",
			env: map[string]string{
				"RUN_ADDRESS":      "env:9000",
				"PRETIX_API_URL":   "https://env.example.com/api/v1",
				"PRETIX_API_TOKEN": "env-token",
			},
			flags: []string{
				"-a", "flag:8000",
				"-u", "https://flag.example.com/api/v1",
				"-t", "flag-token",
				"-o", "flag-org",
				"-e", "flag-event",
			},
			want: want{
				runAddress:    "env:9000",
				apiURL:        "https://env.example.com/api/v1",
				apiToken:      "env-token",
				organizerSlug: "flag-org",
				eventSlug:     "flag-event",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			os.Args = append([]string{"test"}, tt.flags...)

			cfg, err := Parse()
			require.NoError(t, err)

			assert.Equal(t, tt.want.runAddress, cfg.RunAddress)
			assert.Equal(t, tt.want.apiURL, cfg.APIURL)
			assert.Equal(t, tt.want.apiToken, cfg.APIToken)
			assert.Equal(t, tt.want.organizerSlug, cfg.OrganizerSlug)
			assert.Equal(t, tt.want.eventSlug, cfg.EventSlug)
			assert.Equal(t, tt.want.operatorEmail, cfg.OperatorEmail)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		APIURL:        "https://pretix.example.com/api/v1",
		APIToken:      "token",
		OrganizerSlug: "acme",
		EventSlug:     "conf2026",
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "all catalog fields set", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing api url", mutate: func(c *Config) { c.APIURL = "" }, wantErr: true},
		{name: "missing token", mutate: func(c *Config) { c.APIToken = "" }, wantErr: true},
		{name: "missing organizer", mutate: func(c *Config) { c.OrganizerSlug = "" }, wantErr: true},
		{name: "missing event", mutate: func(c *Config) { c.EventSlug = "" }, wantErr: true},
		{name: "missing email is allowed", mutate: func(c *Config) { c.OperatorEmail = "" }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
