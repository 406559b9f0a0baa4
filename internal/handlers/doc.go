// Package handlers implements the HTTP API: library browsing, root
// management, per-item metadata, file operations, preferences, online
// profile imports, and thumbnails.
package handlers
