package main

import (
    "context"
    "log/slog"
    "net/http"
    "os"
    "strings"
    "time"

    "upsrates/internal/carrier"
    "upsrates/internal/config"
    "upsrates/internal/db"
    "upsrates/internal/rate"
    "upsrates/internal/server"
    "upsrates/internal/store"
)

func main() {
    logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
    slog.SetDefault(logger)

    cfg, err := config.Load()
    if err != nil {
        logger.Error("failed to load config", "error", err.Error())
        os.Exit(1)
    }

    settings := cfg.Settings
    var quotes server.QuoteRecorder
    if strings.TrimSpace(cfg.DatabaseURL) != "" {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        pool, err := db.NewPool(ctx, cfg.DatabaseURL)
        if err != nil {
            cancel()
            logger.Error("failed to connect db", "error", err.Error())
            os.Exit(1)
        }
        defer pool.Close()
        if err := store.EnsureSchema(ctx, pool); err != nil {
            cancel()
            logger.Error("failed to ensure schema", "error", err.Error())
            os.Exit(1)
        }
        // Host-stored plugin settings win over file and env values.
        settings, err = store.NewSettingsStore(pool).Load(ctx, settings)
        cancel()
        if err != nil {
            logger.Error("failed to load plugin settings", "error", err.Error())
            os.Exit(1)
        }
        quotes = store.NewQuoteLog(pool)
    } else {
        logger.Warn("DATABASE_URL not set; plugin settings table and quote log disabled")
    }

    if missing := settings.Missing(); len(missing) > 0 {
        logger.Warn("ups settings incomplete; quotes will fail until configured", "missing", strings.Join(missing, ","))
    }

    client := carrier.NewHTTPClient(settings.BaseURL, settings.Timeout, logger)
    engine := rate.NewEngine(client, settings, logger)

    // A quote is a validation and a rating call, each retried once.
    // POST /rates stops quoting ratesMargin before the write deadline so
    // its partial response still reaches the host.
    const ratesMargin = 2 * time.Second
    writeTimeout := 4*settings.Timeout + 5*time.Second
    h := server.NewWithBudget(engine, settings.Services, quotes, logger, writeTimeout-ratesMargin)

    srv := &http.Server{
        Addr:              ":" + cfg.Port,
        Handler:           h,
        ReadTimeout:       10 * time.Second,
        ReadHeaderTimeout: 10 * time.Second,
        WriteTimeout:      writeTimeout,
        IdleTimeout:       60 * time.Second,
    }

    logger.Info("api listening",
        "port", cfg.Port,
        "services", len(rate.ListEnabledServices(settings.Services)),
        "force_country_code", settings.ForceCountryCode,
    )
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        logger.Error("server error", "error", err.Error())
        os.Exit(1)
    }
}
