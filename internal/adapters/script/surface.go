package script

import (
	"github.com/dop251/goja"

	"github.com/bft-labs/gonesbridge/internal/ports"
)

// canvas is the surface created by GonesClient.createCanvas.
type canvas struct {
	m *Module
}

func (m *Module) createCanvas(goja.FunctionCall) goja.Value {
	if m.canvas == nil {
		m.canvas = m.vm.NewObject()
		_ = m.canvas.Set("focused", false)
		m.hasCanvas.Store(true)
	}
	return m.canvas
}

// Surface returns the canvas once the script has created it.
func (m *Module) Surface() (ports.Surface, bool) {
	if !m.hasCanvas.Load() {
		return nil, false
	}
	return canvas{m: m}, true
}

// Focus marks the canvas focused and calls its onfocus handler, if any, on
// the runtime goroutine.
func (c canvas) Focus() error {
	c.m.tasks.push(task{name: "focus", fn: func() error {
		if err := c.m.canvas.Set("focused", true); err != nil {
			return err
		}
		if onfocus, ok := goja.AssertFunction(c.m.canvas.Get("onfocus")); ok {
			_, err := onfocus(c.m.canvas)
			return err
		}
		return nil
	}})
	return nil
}
