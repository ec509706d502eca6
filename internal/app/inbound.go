package app

import (
	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

// inbound handles messages arriving from the host page.
type inbound struct {
	c *Controller
}

// OnReady is sandbox-to-host only.
func (in *inbound) OnReady(protocol.Ready) {
	in.c.logger.Debug("ignoring inbound message", log.String("type", string(protocol.TagReady)))
}

func (in *inbound) OnPlay(m protocol.Play) {
	cart := domain.Cartridge{Name: m.Name(), Data: m.Data()}
	if err := in.c.Play(in.c.ctx, cart); err != nil {
		in.c.logger.Debug("ignoring play",
			log.String("rom", cart.Name),
			log.Int("bytes", m.Size()),
			log.Err(err),
		)
	}
}

// OnName is sandbox-to-host only.
func (in *inbound) OnName(protocol.Name) {
	in.c.logger.Debug("ignoring inbound message", log.String("type", string(protocol.TagName)))
}

func (in *inbound) OnExit(protocol.Exit)           { in.c.Exit() }
func (in *inbound) OnSaveState(protocol.SaveState) { in.c.SaveState() }
func (in *inbound) OnLoadState(protocol.LoadState) { in.c.LoadState() }

var _ protocol.Handler = (*inbound)(nil)
