//go:build desktop && cgo

package main

import (
	"runtime"

	webview "github.com/webview/webview_go"

	"web2view/config"
)

func init() {
	// GTK, Cocoa and WebView2 all require UI work on the main thread.
	runtime.LockOSThread()
}

// NewWindow creates the native game window.
func NewWindow(cfg config.WindowConfig) (Window, error) {
	w := webview.New(cfg.DevTools)
	w.SetTitle(cfg.Title)
	w.SetSize(cfg.Width, cfg.Height, webview.HintNone)
	return w, nil
}
