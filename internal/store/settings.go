// Package store reads host plugin settings and keeps an audit trail of
// quotes in Postgres.
package store

import (
    "context"
    "strconv"
    "strings"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"

    "upsrates/internal/config"
)

const PluginHandle = "upsshipping"

var schema = []string{`
CREATE TABLE IF NOT EXISTS plugin_settings (
    plugin TEXT NOT NULL,
    key    TEXT NOT NULL,
    value  TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (plugin, key)
)`, `
CREATE TABLE IF NOT EXISTS rate_quotes (
    id                 UUID PRIMARY KEY,
    request_id         TEXT NOT NULL DEFAULT '',
    service_code       TEXT NOT NULL,
    destination_postal TEXT NOT NULL DEFAULT '',
    weight             DOUBLE PRECISION NOT NULL,
    height             DOUBLE PRECISION NOT NULL,
    width              DOUBLE PRECISION NOT NULL,
    length             DOUBLE PRECISION NOT NULL,
    amount             NUMERIC(12, 2),
    outcome            TEXT NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL
)`}

// EnsureSchema creates the tables this service reads and writes.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
    for _, stmt := range schema {
        if _, err := db.Exec(ctx, stmt); err != nil {
            return err
        }
    }
    return nil
}

// SettingsStore reads the host's stored plugin settings.
type SettingsStore struct {
    db *pgxpool.Pool
}

func NewSettingsStore(db *pgxpool.Pool) *SettingsStore {
    return &SettingsStore{db: db}
}

// Load overlays the stored settings onto base. Keys that are absent keep
// the value from base.
func (s *SettingsStore) Load(ctx context.Context, base config.Settings) (config.Settings, error) {
    rows, err := s.db.Query(ctx, `SELECT key, value FROM plugin_settings WHERE plugin = $1`, PluginHandle)
    if err != nil {
        return base, err
    }
    defer rows.Close()

    values := map[string]string{}
    for rows.Next() {
        var k, v string
        if err := rows.Scan(&k, &v); err != nil {
            return base, err
        }
        values[k] = v
    }
    if err := rows.Err(); err != nil {
        return base, err
    }
    return ApplySettings(base, values), nil
}

// ApplySettings maps the plugin's setting names onto s.
func ApplySettings(s config.Settings, values map[string]string) config.Settings {
    str := func(key string, dst *string) {
        if v, ok := values[key]; ok && strings.TrimSpace(v) != "" {
            *dst = strings.TrimSpace(v)
        }
    }
    // credentials are opaque to us and go to the carrier byte for byte
    secret := func(key string, dst *string) {
        if v, ok := values[key]; ok && strings.TrimSpace(v) != "" {
            *dst = v
        }
    }
    flag := func(key string, dst *bool) {
        if v, ok := values[key]; ok {
            if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
                *dst = b
            }
        }
    }

    secret("upsAccessKey", &s.AccessKey)
    secret("upsUser", &s.User)
    secret("upsPassword", &s.Password)
    str("upsFromPostalCode", &s.FromPostalCode)
    str("upsBaseUrl", &s.BaseURL)
    if v, ok := values["upsForceCountryCode"]; ok {
        s.ForceCountryCode = strings.ToUpper(strings.TrimSpace(v))
    }
    if v, ok := values["upsTimeoutSeconds"]; ok {
        if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
            s.Timeout = time.Duration(n) * time.Second
        }
    }

    flag("upsEnableGround", &s.Services.Ground)
    flag("upsEnable3Day", &s.Services.ThreeDay)
    flag("upsEnable2Day", &s.Services.TwoDay)
    flag("upsEnable2DayAM", &s.Services.TwoDayAM)
    flag("upsEnable1DaySaver", &s.Services.OneDaySaver)
    flag("upsEnable1Day", &s.Services.OneDay)
    flag("upsEnable1DayEarlyAM", &s.Services.OneDayEarly)
    return s
}
