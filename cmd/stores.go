package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Shivanand-hulikatti/campus-events/internal/config"
	"github.com/Shivanand-hulikatti/campus-events/internal/database"
	"github.com/Shivanand-hulikatti/campus-events/internal/notify"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
	"github.com/Shivanand-hulikatti/campus-events/internal/service"
	"github.com/Shivanand-hulikatti/campus-events/internal/userdir"
)

type userStore interface {
	userdir.Directory
	service.UserStore
}

type notificationStore interface {
	service.NotificationStore
	notify.Store
}

// stores groups the persistence backends selected by STORE.
type stores struct {
	events        service.EventStore
	users         userStore
	associations  service.Associations
	notifications notificationStore
	close         func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Println("store: using in-memory store, data is lost on exit")
		mem := repository.NewMemoryStore()
		return &stores{
			events:        mem,
			users:         mem,
			associations:  mem,
			notifications: mem,
			close:         func() {},
		}, nil

	case config.StorePostgres:
		pool, err := database.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		log.Println("✓ Connected to PostgreSQL")
		users := repository.NewUserRepository(pool)
		return &stores{
			events:        repository.NewEventRepository(pool),
			users:         users,
			associations:  users,
			notifications: repository.NewNotificationRepository(pool),
			close:         pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
