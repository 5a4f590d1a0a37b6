// Package netstack holds the shared network stack handle and the runner
// that drives it.
//
// New returns a *Stack and its *Runner. The Stack is handed to every task
// that needs to observe readiness (link up, configuration applied); the
// Runner is handed to exactly one goroutine, which is the only writer.
// Readers go through RWMutex-guarded accessors.
//
// The Runner applies the static configuration first, so the stack can
// report config-up before the link is up. Callers that need both must
// wait for them in order; see package startup.
package netstack
