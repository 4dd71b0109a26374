package editor

import (
	"context"
	"errors"
	"log"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// Workspace binds the mutation controller, the playback synchronizer and the
// event bus into one editing session. Settles and rollbacks refresh playback
// against the surviving model immediately, and broadcast events trigger a
// background reload, so neither side ever drives the preview from a stale
// clip list.
type Workspace struct {
	Controller *Controller
	Playback   *Synchronizer
	Bus        *Bus

	ctx    context.Context
	notify func(string)
}

// WorkspaceConfig carries the session's collaborators. Store and Player are
// required; the rest may be nil.
type WorkspaceConfig struct {
	Store   Persistence
	Library AssetLibrary
	Player  Player

	// OnRender is handed every visible timeline change.
	OnRender func(timeline.Timeline)
	// OnNotice is handed user-facing messages: rollback explanations and
	// partial-success warnings.
	OnNotice func(string)
}

// NewWorkspace wires a session together. ctx bounds the work its hooks do in
// the background (playback refreshes, reloads); cancel it when the session
// closes.
func NewWorkspace(ctx context.Context, cfg WorkspaceConfig) *Workspace {
	w := &Workspace{
		Bus:    NewBus(),
		ctx:    ctx,
		notify: cfg.OnNotice,
	}
	w.Playback = NewSynchronizer(cfg.Player, cfg.Library)
	w.Controller = NewController(cfg.Store, cfg.Library, Hooks{
		OnRender: cfg.OnRender,
		OnSettle: func(t timeline.Timeline) {
			w.Playback.Refresh(w.ctx, t)
		},
		OnRollback: func(t timeline.Timeline, err error) {
			w.Playback.Refresh(w.ctx, t)
			w.say("change could not be saved: " + err.Error())
		},
		OnWarning: w.say,
	})

	w.Bus.Subscribe("timeline.updated", func(Event) {
		// Refresh hint from another session or the repair worker. A busy
		// controller skips it; the settle lands fresher state anyway.
		if err := w.Controller.Reload(w.ctx); err != nil && !errors.Is(err, ErrMutationInFlight) {
			log.Printf("editor: reload after broadcast: %v", err)
		}
	})
	return w
}

// Open loads the project's timeline and points playback at its start.
func (w *Workspace) Open(ctx context.Context, projectID string) (timeline.Timeline, error) {
	t, err := w.Controller.Load(ctx, projectID)
	if err != nil {
		return timeline.Timeline{}, err
	}
	w.Playback.Refresh(ctx, t)
	return t, nil
}

func (w *Workspace) say(msg string) {
	if w.notify != nil {
		w.notify(msg)
	}
}
