//go:build !windows

package overlay

// Other platforms rely on the translucent background rectangle.
func (screen *BlockScreen) applyNativeOpacity(uint8) {}
