package protocol

import "fmt"

// Tag identifies a message variant on the wire.
type Tag string

// Wire tags. These strings are shared with deployed hosts and must not change,
// including the lower-case "l" in TagLoadState.
const (
	TagReady     Tag = "gonesReady"
	TagPlay      Tag = "gonesPlay"
	TagName      Tag = "gonesName"
	TagExit      Tag = "gonesExit"
	TagSaveState Tag = "gonesSaveState"
	TagLoadState Tag = "gonesloadState"
)

// Tags lists every tag.
func Tags() []Tag {
	return []Tag{TagReady, TagPlay, TagName, TagExit, TagSaveState, TagLoadState}
}

// Message is one of the protocol variants. The set is closed to this package.
type Message interface {
	Tag() Tag
	message()
}

// Ready tells the host that the module is instantiated and can accept Play.
type Ready struct{}

// Play asks the sandbox to start a cartridge.
type Play struct {
	name string
	data []byte
}

// Name reports the cartridge's display name to the host.
type Name struct {
	value string
}

// Exit asks the module to save and quit (host to sandbox), or reports that it
// has quit (sandbox to host).
type Exit struct{}

// SaveState asks the module to snapshot its state.
type SaveState struct{}

// LoadState asks the module to restore its last snapshot.
type LoadState struct{}

// NewReady builds a Ready message.
func NewReady() Ready { return Ready{} }

// NewPlay builds a Play message. data is copied.
func NewPlay(name string, data []byte) Play {
	return Play{name: name, data: clone(data)}
}

// NewName builds a Name message.
func NewName(value string) Name { return Name{value: value} }

// NewExit builds an Exit message.
func NewExit() Exit { return Exit{} }

// NewSaveState builds a SaveState message.
func NewSaveState() SaveState { return SaveState{} }

// NewLoadState builds a LoadState message.
func NewLoadState() LoadState { return LoadState{} }

func (Ready) Tag() Tag     { return TagReady }
func (Play) Tag() Tag      { return TagPlay }
func (Name) Tag() Tag      { return TagName }
func (Exit) Tag() Tag      { return TagExit }
func (SaveState) Tag() Tag { return TagSaveState }
func (LoadState) Tag() Tag { return TagLoadState }

func (Ready) message()     {}
func (Play) message()      {}
func (Name) message()      {}
func (Exit) message()      {}
func (SaveState) message() {}
func (LoadState) message() {}

// Name returns the cartridge identity.
func (p Play) Name() string { return p.name }

// Data returns a copy of the cartridge payload.
func (p Play) Data() []byte { return clone(p.data) }

// Size returns the payload length without copying it.
func (p Play) Size() int { return len(p.data) }

func (p Play) String() string {
	return fmt.Sprintf("%s{name=%q, %d bytes}", TagPlay, p.name, len(p.data))
}

// Value returns the reported name.
func (n Name) Value() string { return n.value }

func (n Name) String() string {
	return fmt.Sprintf("%s{value=%q}", TagName, n.value)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
