// Package controller binds mounted views to the record cache. A controller
// acquires the cache scopes it reads for as long as it is open.
package controller

import "errors"

// ErrClosed is returned when a controller is used after Close, including a
// load that completes after its view went away.
var ErrClosed = errors.New("controller: closed")
