package server

import (
	"context"
	"errors"

	"github.com/jrsteele09/sekai-hub/api"
	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Widget is one dashboard panel. A panel whose call failed keeps its error
// message and renders dimmed; the rest of the dashboard is unaffected.
type Widget[T any] struct {
	Data  T      `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (w Widget[T]) Failed() bool {
	return w.Error != ""
}

// resolve stores the outcome of a widget call. Only a lost credential is
// returned, since no panel can be rendered without one.
func (w *Widget[T]) resolve(name string, data T, err error) error {
	if err == nil {
		w.Data = data
		return nil
	}
	if errors.Is(err, hubErrors.ErrMissingCredential) {
		return err
	}
	log.Warn().Err(err).Str("widget", name).Msg("Dashboard widget unavailable")
	w.Error = widgetErrorMessage(err)
	return nil
}

func widgetErrorMessage(err error) string {
	switch {
	case errors.Is(err, hubErrors.ErrNetworkFailure):
		return "The hub could not be reached."
	case hubErrors.StatusCode(err) != 0:
		return "The hub returned an error."
	}
	return "This panel could not be loaded."
}

type Dashboard struct {
	Stats        Widget[api.Stats]         `json:"stats"`
	Achievements Widget[*api.Achievements] `json:"achievements"`
	Activity     Widget[*api.ActivityPage] `json:"activity"`
	Sync         Widget[api.SyncData]      `json:"sync"`
}

// loadDashboard fetches every panel concurrently. It fails only with
// ErrMissingCredential.
func loadDashboard(ctx context.Context, client *api.Client, activityLimit int) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := client.GetStats(gctx, "", "")
		return d.Stats.resolve("stats", stats, err)
	})
	g.Go(func() error {
		achievements, err := client.GetAchievements(gctx)
		return d.Achievements.resolve("achievements", achievements, err)
	})
	g.Go(func() error {
		page, err := client.GetActivity(gctx, activityLimit, 0)
		return d.Activity.resolve("activity", page, err)
	})
	g.Go(func() error {
		sync, err := client.GetSync(gctx, "")
		return d.Sync.resolve("sync", sync, err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
