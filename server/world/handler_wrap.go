package world

import "sync/atomic"

// HandlerWrapFunc wraps a Handler assigned to a World through World.Handle.
type HandlerWrapFunc func(w *World, h Handler) Handler

var handlerWrap atomic.Pointer[HandlerWrapFunc]

// SetHandlerWrap installs a wrapper that is applied to every Handler passed
// to World.Handle afterwards, for example to log or count events of all
// Worlds in a process. Passing nil removes the wrapper.
func SetHandlerWrap(f HandlerWrapFunc) {
	if f == nil {
		handlerWrap.Store(nil)
		return
	}
	handlerWrap.Store(&f)
}

func wrapWorldHandler(w *World, h Handler) Handler {
	if f := handlerWrap.Load(); f != nil {
		return (*f)(w, h)
	}
	return h
}
