// File: internal/engine/errors.go
package engine

import "errors"

var (
	// ErrBrowserNotFound means no Brave executable was found and
	// BRAVE_PATH is unset.
	ErrBrowserNotFound = errors.New("brave browser not found, set the BRAVE_PATH environment variable")

	// ErrUnsupportedSite means login was asked for a site with no
	// profile and no detectable login form.
	ErrUnsupportedSite = errors.New("unsupported site or unable to detect login form")

	// ErrLoginVerification means the post-login marker never showed up.
	ErrLoginVerification = errors.New("login failed - could not verify successful login")

	// ErrTwoFactorRequired means a 2FA prompt appeared but the caller
	// supplied no TOTP code.
	ErrTwoFactorRequired = errors.New("2FA required but no TOTP code provided")

	// ErrActionNotImplemented means no strategy exists for the
	// requested (site, action) pair.
	ErrActionNotImplemented = errors.New("action not implemented")

	// ErrUnknownMouseAction means mouse_control got an action outside
	// its enum.
	ErrUnknownMouseAction = errors.New("unknown mouse action")
)
