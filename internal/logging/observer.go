package logging

import (
	"github.com/five82/trailedit/internal/state"
)

// ActionObserver returns a store observer recording every transition.
func ActionObserver(log *Logger) state.Observer {
	log = log.With("component", "store")
	return func(prev *state.AppState, action state.Action, next *state.AppState) {
		if next == prev {
			log.Debug("action ignored", "action", action.ActionName(), "mode", prev.Mode.String())
			return
		}
		kv := []interface{}{
			"action", action.ActionName(),
			"mode", next.Mode.String(),
			"phase", next.Draft.Phase().String(),
			"points", len(next.Draft.Points),
			"selection", len(next.Selection),
		}
		if prev.Mode != next.Mode {
			kv = append(kv, "from", prev.Mode.String())
		}
		if next.LastError != nil && next.LastError != prev.LastError {
			log.Warn("action failed", append(kv, "error", next.LastError.Error())...)
			return
		}
		log.Debug("action applied", kv...)
	}
}
