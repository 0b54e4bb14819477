package main

import (
	"log"

	"github.com/getstreetcred/backend/auth"
	"github.com/getstreetcred/backend/config"
	"github.com/getstreetcred/backend/events"
	"github.com/getstreetcred/backend/handlers"
	"github.com/getstreetcred/backend/natsserver"
	"github.com/getstreetcred/backend/storage/backend"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	store, err := backend.Open(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open storage: %v", err)
	}
	defer store.Close()
	log.Printf("🗄️  Storage backend: %s", store.Name())

	publisher, broker, shutdown, err := openEvents(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to start event bus: %v", err)
	}
	defer shutdown()

	if cfg.AllowAssertedIdentity {
		log.Println("⚠️  ALLOW_ASSERTED_IDENTITY is on: requests without a token may act as any userId")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	h := handlers.New(store, tokens, publisher, handlers.Options{
		AdminEmail:            cfg.AdminEmail,
		AllowAssertedIdentity: cfg.AllowAssertedIdentity,
	})

	router := newRouter(h, store.Name(), cfg.StaticDir, broker)

	log.Printf("🚀 Server running on http://localhost:%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openEvents wires the domain event publisher: an embedded broker, an
// external one, or none. The embedded broker is returned so /health can
// report its counters.
func openEvents(cfg config.Config) (events.Publisher, *natsserver.EmbeddedNATS, func(), error) {
	switch {
	case cfg.NATSEmbedded:
		natsCfg := natsserver.DefaultConfig()
		natsCfg.Port = cfg.NATSPort
		ns, err := natsserver.New(natsCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return events.NewNATS(ns), ns, ns.Shutdown, nil
	case cfg.NATSURL != "":
		pub, err := events.Connect(cfg.NATSURL)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Printf("📡 Publishing events to %s", cfg.NATSURL)
		return pub, nil, func() { pub.Close() }, nil
	default:
		return events.Nop{}, nil, func() {}, nil
	}
}
