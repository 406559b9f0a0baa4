// Package online ingests media from external profile-based sources.
//
// A free-form URL is parsed into a Descriptor identifying the service and
// user, a Fetcher paginates the service's listing endpoint into normalized
// Posts, and an Importer downloads each post's media into a deterministic
// folder layout under a library root. Fetch failures are reported as error
// codes alongside whatever partial results pagination produced.
package online
