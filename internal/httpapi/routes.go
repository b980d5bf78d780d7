package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/board-client/internal/engine"
	"github.com/DoyleJ11/board-client/internal/session"
	"github.com/DoyleJ11/board-client/pkg/types"
)

// Session is the part of the session loop the API drives.
type Session interface {
	View(ctx context.Context) (session.View, error)
	Act(ctx context.Context, req engine.Request, payload any) error
	DismissCard(ctx context.Context) (bool, error)
}

type BoardSource interface {
	Board(ctx context.Context) ([]types.Tile, error)
}

type Deps struct {
	Session Session
	Board   BoardSource // optional; the snapshot board is used without it
	Log     *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/state", GetState(d))
	r.Get("/actions", ListActions(d))
	r.Post("/actions", SubmitAction(d))
	r.Get("/board", GetBoard(d))
	r.Post("/card/dismiss", DismissCard(d))
	return r
}
