package util

import (
	"errors"
	"os"
)

// ErrNotRoot is returned by CheckSudo for any non-root uid.
var ErrNotRoot = errors.New("util: run as root")

// CheckSudo reports whether the given uid is root. It does not verify
// that the caller can actually read all of /proc or write the data
// directory; it only gates on uid 0 before the collector starts.
func CheckSudo(uid int) error {
	if uid != 0 {
		return ErrNotRoot
	}
	return nil
}

// Hostname returns the machine's network name, or "localhost" when it
// cannot be determined. Used as the default host identifier carried in
// every snapshot.
func Hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "localhost"
	}
	return h
}
