package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/internal/ports"
	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

// hostBridge is the import object given to modules.
type hostBridge struct {
	c *Controller
}

func (h *hostBridge) SetRomName(value string) {
	if !h.c.lifecycle.IsLoaded() {
		h.c.logger.Debug("dropping rom name before load", log.String("name", value))
		return
	}
	h.c.emit(protocol.NewName(value))
}

func (h *hostBridge) DBPut(ctx context.Context, collection domain.Collection, name string, data []byte) error {
	if err := h.refuseUnlessLoaded("dbPut"); err != nil {
		return err
	}
	return h.c.store.Put(ctx, collection, name, data)
}

func (h *hostBridge) DBGet(ctx context.Context, collection domain.Collection, name string) ([]byte, error) {
	if err := h.refuseUnlessLoaded("dbGet"); err != nil {
		return nil, err
	}
	return h.c.store.Get(ctx, collection, name)
}

// refuseUnlessLoaded rejects storage calls made before the module finished
// instantiating, or after instantiation failed.
func (h *hostBridge) refuseUnlessLoaded(op string) error {
	if !h.c.lifecycle.IsLoaded() {
		return fmt.Errorf("%w: %s in state %s", domain.ErrProtocolViolation, op, h.c.lifecycle.State())
	}
	return nil
}

var _ ports.Host = (*hostBridge)(nil)
