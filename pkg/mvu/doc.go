// Package mvu runs Model-View-Update components.
//
// A Program owns the current model snapshot of one Component. Init and
// Dispatch each seed a private message queue and drain it: every message is
// passed to the component's Update, the resulting snapshot replaces the
// current one, the Renderer (if any) is notified, and the returned command,
// if any, runs before the next message is taken. Commands emit follow-up
// messages into the same queue.
//
// Allowed here:
// - queueing, command sequencing, cancellation and env lifetime
// - change detection on model identity
//
// Not allowed here:
// - domain state or rendering
// - cross-process scheduling or message routing
package mvu
