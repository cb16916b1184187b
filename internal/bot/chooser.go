package bot

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/showdown-battle-bot/internal/domain"
	"github.com/park285/showdown-battle-bot/internal/psproto"
)

// Chooser turns a request snapshot into a decision string ("move 1",
// "switch 2"). Returning ok=false means no decision is due.
type Chooser func(req *psproto.Request) (choice string, ok bool)

// DefaultChooser picks the first available action: the first enabled move
// of the first active slot, or the first healthy bench pokemon on a forced
// switch. It exists to keep the driver acting; a real policy replaces it
// via WithChooser.
func DefaultChooser(req *psproto.Request) (string, bool) {
	if req == nil || req.Wait {
		return "", false
	}
	if len(req.ForceSwitch) > 0 && req.ForceSwitch[0] {
		for i, p := range req.Side.Pokemon {
			if p.Active || p.Fainted() {
				continue
			}
			// Switch slots are numbered from 1 in team order.
			return fmt.Sprintf("switch %d", i+1), true
		}
		return "", false
	}
	if len(req.Active) > 0 {
		for i, m := range req.Active[0].Moves {
			if m.Disabled {
				continue
			}
			return fmt.Sprintf("move %d", i+1), true
		}
	}
	return "", false
}

// LogHandler is the shipped default event sink: it logs every domain event.
// Record bookkeeping happens in the bot's dispatch, independent of the
// handler.
type LogHandler struct {
	log *zap.Logger
}

// NewLogHandler returns a handler logging to log.
func NewLogHandler(log *zap.Logger) *LogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogHandler{log: log}
}

func (h *LogHandler) HandleEvent(ev domain.Event) error {
	h.log.Info("battle event", zap.String("kind", fmt.Sprintf("%T", ev)), zap.Any("event", ev))
	return nil
}
