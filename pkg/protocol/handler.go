package protocol

import "fmt"

// Handler receives each message variant.
type Handler interface {
	OnReady(Ready)
	OnPlay(Play)
	OnName(Name)
	OnExit(Exit)
	OnSaveState(SaveState)
	OnLoadState(LoadState)
}

// Dispatch calls the Handler method matching m.
func Dispatch(m Message, h Handler) error {
	switch msg := m.(type) {
	case Ready:
		h.OnReady(msg)
	case Play:
		h.OnPlay(msg)
	case Name:
		h.OnName(msg)
	case Exit:
		h.OnExit(msg)
	case SaveState:
		h.OnSaveState(msg)
	case LoadState:
		h.OnLoadState(msg)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownTag, m)
	}
	return nil
}
