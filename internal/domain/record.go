package domain

import (
	"fmt"
	"strings"
)

// Collection names one of the independent record sets.
type Collection string

const (
	// States holds emulator snapshot blobs.
	States Collection = "states"
	// Saves holds battery-backed save data.
	Saves Collection = "saves"
)

// Legacy key suffixes that select the destination collection.
const (
	StateSuffix = ".state.gz"
	SaveSuffix  = ".sav"
)

// Collections lists every collection in schema order.
func Collections() []Collection {
	return []Collection{States, Saves}
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	return c == States || c == Saves
}

// ParseCollection converts a name into a Collection.
func ParseCollection(name string) (Collection, error) {
	c := Collection(strings.TrimSpace(name))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return c, nil
}

func (c Collection) String() string { return string(c) }

// LegacyEntry is a flat key/value pair from the legacy storage area.
type LegacyEntry struct {
	Key   string
	Value []byte
}

// CollectionForKey routes a legacy key by its suffix.
// Keys matching neither suffix are not migrated.
func CollectionForKey(key string) (Collection, bool) {
	switch {
	case strings.HasSuffix(key, StateSuffix):
		return States, true
	case strings.HasSuffix(key, SaveSuffix):
		return Saves, true
	default:
		return "", false
	}
}

// Cartridge is the ROM handed to the module for one play session.
type Cartridge struct {
	Name string
	Data []byte
}
