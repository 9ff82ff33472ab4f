package gate

import (
	"context"

	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
)

// SendFlagField is the notification field that enables delivery.
const SendFlagField = "do_send_notification"

// Fields is the notification payload handed over by the sender.
type Fields map[string]any

// SendRequest is one pending notification as seen by the sender hook.
type SendRequest struct {
	Fields    Fields
	NewStatus string
	OldStatus string
	Post      map[string]any
}

// FilterNotification returns the fields to dispatch for req. When p may not
// trigger a send the copy carries do_send_notification=false; otherwise the
// fields come back unchanged. It never enables a send the caller disabled.
func (g *Gate) FilterNotification(ctx context.Context, p *principal.Principal, req SendRequest) Fields {
	if g.MayTriggerSend(ctx, p) {
		return req.Fields
	}
	out := make(Fields, len(req.Fields)+1)
	for k, v := range req.Fields {
		out[k] = v
	}
	out[SendFlagField] = false
	return out
}
