package stravastats_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bzimmer/stravastats"
)

func TestLoadConfigDefaults(t *testing.T) {
	a := require.New(t)
	cfg, err := stravastats.LoadConfig("")
	a.NoError(err)
	a.Equal(50, cfg.PerPage)
	a.Equal(0, cfg.MaxPages)
	a.Equal("recent_detailed_activities.csv", cfg.Output)
	a.Equal("insights.md", cfg.Report)
	a.Equal([]string{"Ride"}, cfg.Types)
	a.Equal(35, cfg.Profile.Age)
	a.Len(cfg.Profile.Races, 6)
	a.Equal(stravastats.Race{Date: "2024-10-05", Place: 16, Field: 46}, cfg.Profile.Races[4])
}

func TestLoadConfigFile(t *testing.T) {
	a := require.New(t)
	path := filepath.Join(t.TempDir(), "stravastats.yaml")
	a.NoError(os.WriteFile(path, []byte(`
per_page: 30
max_pages: 4
database: activities.db
types: [Ride, VirtualRide]
profile:
  age: 41
`), 0o600))

	cfg, err := stravastats.LoadConfig(path)
	a.NoError(err)
	a.Equal(30, cfg.PerPage)
	a.Equal(4, cfg.MaxPages)
	a.Equal("activities.db", cfg.Database)
	a.Equal([]string{"Ride", "VirtualRide"}, cfg.Types)
	a.Equal(41, cfg.Profile.Age)
	a.Equal("male", cfg.Profile.Gender)
	a.Equal("recent_detailed_activities.csv", cfg.Output)
}

func TestLoadConfigErrors(t *testing.T) {
	a := require.New(t)
	_, err := stravastats.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	a.ErrorIs(err, stravastats.ErrConfig)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	a.NoError(os.WriteFile(path, []byte("per_page: [1"), 0o600))
	_, err = stravastats.LoadConfig(path)
	a.ErrorIs(err, stravastats.ErrConfig)
}

func TestConfigValidate(t *testing.T) {
	a := require.New(t)
	cfg, err := stravastats.LoadConfig("")
	a.NoError(err)

	err = cfg.Validate()
	a.ErrorIs(err, stravastats.ErrConfig)
	a.Contains(err.Error(), "client id, client secret, refresh token")

	cfg.Credentials = stravastats.Credentials{ClientID: "1", ClientSecret: "2"}
	err = cfg.Validate()
	a.ErrorIs(err, stravastats.ErrConfig)
	a.Contains(err.Error(), "missing refresh token")

	cfg.Credentials.RefreshToken = "3"
	a.NoError(cfg.Validate())

	cfg.PerPage = 500
	a.ErrorIs(cfg.Validate(), stravastats.ErrConfig)
	cfg.PerPage = 50
	cfg.MaxPages = -1
	a.ErrorIs(cfg.Validate(), stravastats.ErrConfig)
}
