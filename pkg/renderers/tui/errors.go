package tui

import "errors"

// ErrAborted signals the user aborted input (Ctrl+C or the quit action).
var ErrAborted = errors.New("tui: aborted")
