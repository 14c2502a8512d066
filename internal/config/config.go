package config

import (
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "gopkg.in/yaml.v3"
)

const (
    DefaultBaseURL          = "https://onlinetools.ups.com/rest"
    DefaultForceCountryCode = "US"
    DefaultTimeout          = 10 * time.Second
)

type Config struct {
    DatabaseURL string
    Port        string
    Settings    Settings
}

// Settings is the carrier configuration surface. It is read once at
// startup and passed to constructors; nothing writes it afterwards.
type Settings struct {
    AccessKey      string
    User           string
    Password       string
    FromPostalCode string

    Services ServiceFlags

    // ForceCountryCode replaces the destination country sent to the carrier.
    // Empty keeps the order's own country.
    ForceCountryCode string
    BaseURL          string
    Timeout          time.Duration
}

// ServiceFlags toggles individual UPS service tiers.
type ServiceFlags struct {
    Ground      bool
    ThreeDay    bool
    TwoDay      bool
    TwoDayAM    bool
    OneDaySaver bool
    OneDay      bool
    OneDayEarly bool
}

// Missing lists the settings a price lookup cannot run without.
func (s Settings) Missing() []string {
    var out []string
    if strings.TrimSpace(s.AccessKey) == "" {
        out = append(out, "access_key")
    }
    if strings.TrimSpace(s.User) == "" {
        out = append(out, "user")
    }
    if strings.TrimSpace(s.Password) == "" {
        out = append(out, "password")
    }
    if strings.TrimSpace(s.FromPostalCode) == "" {
        out = append(out, "from_postal_code")
    }
    return out
}

func DefaultSettings() Settings {
    return Settings{
        Services:         ServiceFlags{Ground: true},
        ForceCountryCode: DefaultForceCountryCode,
        BaseURL:          DefaultBaseURL,
        Timeout:          DefaultTimeout,
    }
}

type configFile struct {
    Server struct {
        Port string `yaml:"port"`
    } `yaml:"server"`
    Database struct {
        URL string `yaml:"url"`
    } `yaml:"database"`
    UPS struct {
        AccessKey        string  `yaml:"access_key"`
        User             string  `yaml:"user"`
        Password         string  `yaml:"password"`
        FromPostalCode   string  `yaml:"from_postal_code"`
        ForceCountryCode *string `yaml:"force_country_code"`
        BaseURL          string  `yaml:"base_url"`
        TimeoutSeconds   int     `yaml:"timeout_seconds"`
        Services         struct {
            Ground      *bool `yaml:"ground"`
            ThreeDay    *bool `yaml:"three_day"`
            TwoDay      *bool `yaml:"two_day"`
            TwoDayAM    *bool `yaml:"two_day_am"`
            OneDaySaver *bool `yaml:"one_day_saver"`
            OneDay      *bool `yaml:"one_day"`
            OneDayEarly *bool `yaml:"one_day_early_am"`
        } `yaml:"services"`
    } `yaml:"ups"`
}

// Load builds the config from defaults, the optional YAML file at
// CONFIG_PATH, then environment overrides.
func Load() (Config, error) {
    return LoadFile(os.Getenv("CONFIG_PATH"))
}

func LoadFile(path string) (Config, error) {
    cfg := Config{
        Port:     "8080",
        Settings: DefaultSettings(),
    }

    if path != "" {
        raw, err := os.ReadFile(path)
        if err != nil {
            return Config{}, fmt.Errorf("read config file: %w", err)
        }
        if err := applyFile(&cfg, raw); err != nil {
            return Config{}, err
        }
    }

    cfg.Port = envOrDefault("PORT", cfg.Port)
    cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)

    s := &cfg.Settings
    s.AccessKey = envOrDefault("UPS_ACCESS_KEY", s.AccessKey)
    s.User = envOrDefault("UPS_USER", s.User)
    s.Password = envOrDefault("UPS_PASSWORD", s.Password)
    s.FromPostalCode = envOrDefault("UPS_FROM_POSTAL_CODE", s.FromPostalCode)
    if v, ok := os.LookupEnv("UPS_FORCE_COUNTRY_CODE"); ok {
        s.ForceCountryCode = strings.ToUpper(strings.TrimSpace(v))
    }
    s.BaseURL = envOrDefault("UPS_BASE_URL", s.BaseURL)
    s.Timeout = time.Duration(envInt("UPS_TIMEOUT_SECONDS", int(s.Timeout.Seconds()))) * time.Second

    s.Services.Ground = envBool("UPS_ENABLE_GROUND", s.Services.Ground)
    s.Services.ThreeDay = envBool("UPS_ENABLE_3DAY", s.Services.ThreeDay)
    s.Services.TwoDay = envBool("UPS_ENABLE_2DAY", s.Services.TwoDay)
    s.Services.TwoDayAM = envBool("UPS_ENABLE_2DAY_AM", s.Services.TwoDayAM)
    s.Services.OneDaySaver = envBool("UPS_ENABLE_1DAY_SAVER", s.Services.OneDaySaver)
    s.Services.OneDay = envBool("UPS_ENABLE_1DAY", s.Services.OneDay)
    s.Services.OneDayEarly = envBool("UPS_ENABLE_1DAY_EARLY_AM", s.Services.OneDayEarly)

    if s.Timeout <= 0 {
        s.Timeout = DefaultTimeout
    }
    return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
    var f configFile
    if err := yaml.Unmarshal(raw, &f); err != nil {
        return fmt.Errorf("parse config file: %w", err)
    }
    if f.Server.Port != "" {
        cfg.Port = f.Server.Port
    }
    if f.Database.URL != "" {
        cfg.DatabaseURL = f.Database.URL
    }

    u := f.UPS
    s := &cfg.Settings
    s.AccessKey = orDefault(u.AccessKey, s.AccessKey)
    s.User = orDefault(u.User, s.User)
    s.Password = orDefault(u.Password, s.Password)
    s.FromPostalCode = orDefault(u.FromPostalCode, s.FromPostalCode)
    s.BaseURL = orDefault(u.BaseURL, s.BaseURL)
    if u.ForceCountryCode != nil {
        s.ForceCountryCode = strings.ToUpper(strings.TrimSpace(*u.ForceCountryCode))
    }
    if u.TimeoutSeconds > 0 {
        s.Timeout = time.Duration(u.TimeoutSeconds) * time.Second
    }

    setBool(&s.Services.Ground, u.Services.Ground)
    setBool(&s.Services.ThreeDay, u.Services.ThreeDay)
    setBool(&s.Services.TwoDay, u.Services.TwoDay)
    setBool(&s.Services.TwoDayAM, u.Services.TwoDayAM)
    setBool(&s.Services.OneDaySaver, u.Services.OneDaySaver)
    setBool(&s.Services.OneDay, u.Services.OneDay)
    setBool(&s.Services.OneDayEarly, u.Services.OneDayEarly)
    return nil
}

func setBool(dst *bool, v *bool) {
    if v != nil {
        *dst = *v
    }
}

func orDefault(v, fallback string) string {
    if strings.TrimSpace(v) == "" {
        return fallback
    }
    return v
}

func envOrDefault(name, fallback string) string {
    if value := os.Getenv(name); value != "" {
        return value
    }
    return fallback
}

func envInt(name string, fallback int) int {
    raw := os.Getenv(name)
    if raw == "" {
        return fallback
    }
    v, err := strconv.Atoi(raw)
    if err != nil {
        return fallback
    }
    return v
}

func envBool(name string, fallback bool) bool {
    raw := strings.TrimSpace(os.Getenv(name))
    if raw == "" {
        return fallback
    }
    v, err := strconv.ParseBool(raw)
    if err != nil {
        return fallback
    }
    return v
}
