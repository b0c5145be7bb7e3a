//go:build !linux && !darwin && !windows

package ui

import "errors"

var errClipboardUnsupported = errors.New("no system clipboard on this platform")

func writeClipboard(string) error {
	return errClipboardUnsupported
}
