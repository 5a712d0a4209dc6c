package main

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// openerCommand returns the command that hands url to the user's default
// handler on goos.
func openerCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url), nil
	default:
		return nil, fmt.Errorf("no URL opener for %s", goos)
	}
}

// externalOpener returns a function that opens URLs outside the shell.
// Failures are logged; the caller never waits for the opener to exit.
func externalOpener(logger *slog.Logger) func(string) {
	logger = logger.With("component", "opener")
	return func(url string) {
		cmd, err := openerCommand(runtime.GOOS, url)
		if err == nil {
			err = cmd.Start()
		}
		if err != nil {
			logger.Warn("failed to open URL externally", "url", url, "error", err)
			return
		}
		go func() { _ = cmd.Wait() }()
	}
}
