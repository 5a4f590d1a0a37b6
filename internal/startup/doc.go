// Package startup holds the readiness gate run by the initializing goroutine.
//
// WaitForConnection polls the stack handle in two sequential phases: link
// up every 500ms, then configuration applied every 100ms. The order is
// fixed. A stack that applies its static configuration before the radio
// has a link still keeps the gate closed until the link comes up.
package startup
