// Package middleware provides HTTP middleware for the library server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics
//   - Response compression (gzip)
package middleware
