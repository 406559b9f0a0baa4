// Package state coordinates the library's moving parts: the current
// snapshot, rescans, root management, online imports, and background tasks.
package state
