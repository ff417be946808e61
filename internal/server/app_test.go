package server

import (
	"testing"

	"github.com/dmitrijs2005/jigsawhub/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginPatterns(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"wildcard wins", []string{"https://a.example.com", "*"}, []string{"*"}},
		{"urls become hosts", []string{"https://a.example.com", "http://localhost:3000"}, []string{"a.example.com", "localhost:3000"}},
		{"bare patterns kept", []string{"*.example.com"}, []string{"*.example.com"}},
		{"blanks skipped", []string{" ", ""}, nil},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, originPatterns(tt.in))
		})
	}
}

func TestNewApp(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	app, err := NewApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.NotNil(t, app.verifier)
	assert.NotNil(t, app.repos)
	require.NoError(t, app.db.Close())
}

func TestNewApp_UnknownLogBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.LogBackend = "syslog"

	_, err := NewApp(cfg)
	require.Error(t, err)
}
