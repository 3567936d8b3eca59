// Package scanner runs the capture, segment, recognize and assemble loop.
//
// A Scanner owns one capture session at a time. Start acquires a frame
// source, provisions the recognition workers and starts a loop goroutine;
// Stop, or the source ending on its own, tears the session down again.
// Recognition workers survive the session and are reused by the next one.
//
// # Lifecycle
//
//	Idle -> Initializing -> Scanning -> Stopping -> Idle
//
// Events are emitted on the scanner's hub in this order for a session:
// INITIALIZING, STARTED, then any number of PREVIEW, DEBUG_PIPELINE and
// SAPLING-FOUND events, and finally exactly one STOPPED. A denied capture
// source emits nothing.
//
// # Cycles
//
// Each cycle draws the current frame onto a 16:9 render surface, cuts six
// cells per region, recognizes all cells concurrently and waits for every
// one of them. Regions whose six cells all read as gene letters are reported
// as SAPLING-FOUND. Consecutive cycle starts are at least the scan interval
// apart; a cycle that takes longer delays the next one rather than
// overlapping it.
//
// # Listeners
//
// Listeners run on the scanner's goroutines. A listener must not call Stop
// synchronously, since Stop waits for the loop that is delivering the event.
package scanner
