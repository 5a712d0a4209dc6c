//go:build !desktop || !cgo

package main

import (
	"errors"

	"web2view/config"
)

// errNoDesktop is returned by builds without native window support.
var errNoDesktop = errors.New("native window not available in this build; rebuild with CGO_ENABLED=1 -tags desktop")

// NewWindow reports that this build has no native window.
func NewWindow(config.WindowConfig) (Window, error) {
	return nil, errNoDesktop
}
