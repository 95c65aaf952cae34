// Package app provides application initialization and dependency wiring.
//
// App is the container that holds every wired component: Genkit, the
// database pool, the comprehension engine, the document ranker, and the
// personalization service. Setup builds it, Close releases it.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/egitsel/aprag/internal/config"
	"github.com/egitsel/aprag/internal/ebars"
	"github.com/egitsel/aprag/internal/log"
	"github.com/egitsel/aprag/internal/personalize"
	"github.com/egitsel/aprag/internal/retrieval"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit *genkit.Genkit
	Pool   *pgxpool.Pool

	// Wired services, ready for the HTTP layer.
	Feedback    *ebars.Handler
	Personalize *personalize.Service
	Ranker      *retrieval.Ranker
	Documents   *retrieval.Store

	// Cleanup functions in initialization order.
	cleanups []func()
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() error {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
	return nil
}
