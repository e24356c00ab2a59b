package core

import "fmt"

// SettingsError reports invalid or missing configuration detected while
// constructing simulation objects. It is returned as a normal error so the
// caller can refuse to start the run.
type SettingsError struct {
	msg string
}

func (e *SettingsError) Error() string { return e.msg }

func settingsErrorf(format string, args ...any) *SettingsError {
	return &SettingsError{msg: fmt.Sprintf(format, args...)}
}

// SimError reports a broken simulation invariant: a connection missing from
// its peer, an address that does not match its index, an unexpected com bus
// key. These indicate earlier corruption and are not recoverable, so they
// are raised as panics and terminate the run.
type SimError struct {
	msg string
}

func (e *SimError) Error() string { return e.msg }

func simFatalf(format string, args ...any) {
	panic(&SimError{msg: fmt.Sprintf(format, args...)})
}
