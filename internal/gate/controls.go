package gate

import (
	"context"

	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
)

// Identity of the send control registered by the notification sender.
const (
	SendControlID      = "onesignal_notif_on_post"
	SendControlContext = "side"
)

// Control is one UI control registered on an editing screen.
type Control struct {
	ID       string `json:"id" validate:"required"`
	Title    string `json:"title"`
	Context  string `json:"context"`
	Priority string `json:"priority"`
}

// Screen is the set of controls registered for one screen.
type Screen struct {
	ID       string
	Controls []Control
}

// FilterControls returns the controls of screen that p may see. Only the
// send control is ever removed.
func (g *Gate) FilterControls(ctx context.Context, p *principal.Principal, screen Screen) []Control {
	if g.MayShowSendControl(ctx, p) {
		return screen.Controls
	}
	out := make([]Control, 0, len(screen.Controls))
	for _, c := range screen.Controls {
		if c.ID == SendControlID && c.Context == SendControlContext {
			continue
		}
		out = append(out, c)
	}
	return out
}
