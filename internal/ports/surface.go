package ports

// Surface is the module's rendering target.
type Surface interface {
	// Focus routes keyboard input to the surface.
	Focus() error
}

// SurfaceLocator finds the rendering surface. The surface appears
// asynchronously after play starts, so callers poll.
type SurfaceLocator interface {
	Surface() (Surface, bool)
}
