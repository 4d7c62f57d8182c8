// Package config loads mbpg-light's settings from a TOML file and
// MBLIGHT__-prefixed environment variables, and exposes them behind the
// type-erased types.SettingsProvider interface so the engine never
// depends on this concrete struct. Generalized from the teacher's
// Config.Bind(*pflag.FlagSet)/Preflight() pattern
// (internal/source/server/config.go).
package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

// DBSettings holds the mirror's own Postgres connection parameters.
type DBSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// MusicbrainzSettings holds the upstream replication endpoint parameters.
type MusicbrainzSettings struct {
	ReplicationBaseURL string `mapstructure:"replication_base_url"`
	AccessToken        string `mapstructure:"access_token"`
}

// SchemaSettings names the schemas to keep. An empty list keeps
// everything; a non-empty list is an allow-list, not a deny-list.
type SchemaSettings struct {
	KeepOnly []string `mapstructure:"keep_only"`
}

// TableSettings names the bare table names to keep. An empty list keeps
// everything; a non-empty list is an allow-list, not a deny-list.
type TableSettings struct {
	KeepOnly []string `mapstructure:"keep_only"`
}

// Settings is the concrete configuration struct loaded from TOML/env. It
// implements types.SettingsProvider.
type Settings struct {
	DB          DBSettings          `mapstructure:"db"`
	Musicbrainz MusicbrainzSettings `mapstructure:"musicbrainz"`
	Schema      SchemaSettings      `mapstructure:"schema"`
	Table       TableSettings       `mapstructure:"table"`
}

var _ types.SettingsProvider = (*Settings)(nil)

// Bind registers the flags sync/init accept, matching the teacher's
// Config.Bind registering onto a *pflag.FlagSet shared with cobra.
func Bind(flags *pflag.FlagSet) {
	flags.String("db.host", "localhost", "mirror database host")
	flags.Int("db.port", 5432, "mirror database port")
	flags.String("db.user", "musicbrainz", "mirror database user")
	flags.String("db.password", "", "mirror database password")
	flags.String("db.name", "musicbrainz", "mirror database name")
	flags.String("musicbrainz.replication_base_url", "https://metabrainz.org/api/musicbrainz/replication-packets", "upstream replication packet base URL")
	flags.String("musicbrainz.access_token", "", "upstream replication access token")
}

// Load reads the first of /etc/mblight/config.toml and ./config.toml that
// exists (only one file is read), overlays MBLIGHT__-prefixed environment
// variables (nested with "__"), and binds the given flag set, matching
// spec's configuration precedence.
func Load(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc/mblight")
	v.AddConfigPath(".")

	// viper joins prefix and key with "_", giving MBLIGHT__DB__HOST.
	v.SetEnvPrefix("MBLIGHT_")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errors.Wrap(err, "binding flags")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "decoding settings")
	}
	return &s, nil
}

// DatabaseURL implements types.SettingsProvider.
func (s *Settings) DatabaseURL() string {
	return "postgres://" + s.DB.User + ":" + s.DB.Password + "@" +
		s.DB.Host + ":" + strconv.Itoa(s.DB.Port) + "/" + s.DB.Name
}

// ReplicationBaseURL implements types.SettingsProvider.
func (s *Settings) ReplicationBaseURL() string {
	return s.Musicbrainz.ReplicationBaseURL
}

// AccessToken implements types.SettingsProvider.
func (s *Settings) AccessToken() string {
	return s.Musicbrainz.AccessToken
}

// ShouldSkipSchema implements types.SettingsProvider: true iff the
// schema allow-list is non-empty and does not contain schema.
func (s *Settings) ShouldSkipSchema(schema string) bool {
	return len(s.Schema.KeepOnly) > 0 && !contains(s.Schema.KeepOnly, schema)
}

// ShouldSkipTable implements types.SettingsProvider: true iff the table
// allow-list is non-empty and does not contain table's bare name. The
// schema parameter identifies the table being considered but does not
// qualify the match, since the allow-list holds bare table names.
func (s *Settings) ShouldSkipTable(schema, table string) bool {
	return len(s.Table.KeepOnly) > 0 && !contains(s.Table.KeepOnly, table)
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}
