package web

import (
	"dreamsite/internal/gateway"
	"dreamsite/internal/memorystore"
	"dreamsite/internal/moderation"
	"dreamsite/internal/submission"

	"go.uber.org/zap"
)

// Tab owns the components of one browser tab.
type Tab struct {
	ID         string
	Form       *submission.Form
	Moderation *moderation.Session
}

// Close disposes both components.
func (t *Tab) Close() {
	t.Form.Close()
	t.Moderation.Close()
}

// NewTabStore builds the tab registry. Each tab gets its own gateway client
// so its moderator session is scoped to the tab id.
func NewTabStore(cfg TabOptions, factory gateway.Factory, logger *zap.Logger) *memorystore.TabStore[*Tab] {
	return memorystore.NewTabStore(cfg.IdleTimeout, func(id string) *Tab {
		client := factory(id)
		tabLogger := logger.With(zap.String("tab", id))
		return &Tab{
			ID:         id,
			Form:       submission.NewForm(client, tabLogger),
			Moderation: moderation.NewSession(client, tabLogger),
		}
	})
}
