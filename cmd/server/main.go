package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/matthewbaird/gigwizard/internal/activity"
	"github.com/matthewbaird/gigwizard/internal/config"
	"github.com/matthewbaird/gigwizard/internal/draft"
	"github.com/matthewbaird/gigwizard/internal/event"
	"github.com/matthewbaird/gigwizard/internal/eventbus"
	"github.com/matthewbaird/gigwizard/internal/gig"
	"github.com/matthewbaird/gigwizard/internal/server"
	"github.com/matthewbaird/gigwizard/internal/session"
	"github.com/matthewbaird/gigwizard/internal/storage"
	"github.com/matthewbaird/gigwizard/internal/wizard"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	flows, err := wizard.LoadFlows(cfg.FlowsFile)
	if err != nil {
		log.Fatalf("loading wizard flows: %v", err)
	}

	db, err := storage.OpenSQLite(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	drafts := draft.NewSQLiteStore(db)
	if err := drafts.Migrate(ctx); err != nil {
		log.Fatalf("migrating drafts: %v", err)
	}

	var (
		gigs  gig.Repository
		store activity.Store
	)
	if cfg.PostgresURL != "" {
		pool, err := storage.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("opening postgres: %v", err)
		}
		defer pool.Close()

		pgGigs := gig.NewPostgresRepository(pool)
		if err := pgGigs.CreateTable(ctx); err != nil {
			log.Fatalf("migrating gigs: %v", err)
		}
		pgActivity := activity.NewPostgresStore(pool)
		if err := pgActivity.CreateTable(ctx); err != nil {
			log.Fatalf("migrating activity: %v", err)
		}
		gigs, store = pgGigs, pgActivity
		log.Println("gigs and activity stored in postgres")
	} else {
		sqliteGigs := gig.NewSQLiteRepository(db)
		if err := sqliteGigs.Migrate(ctx); err != nil {
			log.Fatalf("migrating gigs: %v", err)
		}
		gigs, store = sqliteGigs, activity.NewMemoryStore()
		log.Println("gigs stored in sqlite, activity kept in memory")
	}

	bus := eventbus.New(cfg.EventBuffer)
	bus.Subscribe("log", eventbus.NewLogConsumer())
	bus.Start(ctx)
	defer bus.Stop()

	recorder := event.NewActivityRecorder(store)
	recorder.SetPublisher(bus)

	sessions := session.NewManager(func(mode wizard.Mode, gigID, actorID string) (*wizard.Controller, error) {
		return wizard.NewController(wizard.Config{
			Mode:       mode,
			GigID:      gigID,
			ActorID:    actorID,
			Flows:      flows,
			Drafts:     draft.NewAdapter(drafts, actorID, gigID, draft.WithDebounce(cfg.DraftDebounce)),
			Repository: gigs,
			Recorder:   recorder,
		})
	}, cfg.SessionMaxAge, cfg.SessionIdleTimeout)
	sessionsDone := make(chan struct{})
	go func() {
		defer close(sessionsDone)
		sessions.Run(ctx, cfg.SessionSweep)
	}()

	if err := server.Run(ctx, server.Config{
		Port:     cfg.Port,
		Sessions: sessions,
		Gigs:     gigs,
		Activity: store,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}

	// Pending drafts are flushed as the session manager closes every wizard.
	stop()
	<-sessionsDone
}
