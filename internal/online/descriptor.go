package online

import (
	"fmt"
	"net/url"
	"strings"

	"media-librarian/internal/fileops"
)

// Service identifies the kind of remote source a profile lives on.
type Service string

const (
	// ServiceReddit is a Reddit-shaped JSON listing source.
	ServiceReddit Service = "reddit"
	// ServiceDeviantArt is a DeviantArt-shaped RSS feed source.
	ServiceDeviantArt Service = "deviantart"
	// ServiceCustom is a generic JSON API source on an arbitrary host.
	ServiceCustom Service = "custom"
)

// Descriptor is the normalized identity of an external content source.
// Immutable once parsed.
type Descriptor struct {
	Service Service `json:"service"`
	// ServiceName equals string(Service) except for custom sources, where
	// it retains the parsed service token used for endpoints and dedup.
	ServiceName string `json:"serviceName"`
	UserID      string `json:"userId"`
	Origin      string `json:"origin"`
	SourceURL   string `json:"sourceUrl"`
}

// ProfileKey is the stable dedup key for this profile across the whole
// system.
func (d Descriptor) ProfileKey() string {
	return d.ServiceName + "::" + strings.ToLower(d.UserID)
}

// DataRoot is the relative folder all imports for this service live under.
func (d Descriptor) DataRoot() string {
	return "Online Imports/" + d.ServiceName
}

// deviantartReserved lists first path segments that are site routes, not
// usernames.
var deviantartReserved = map[string]bool{
	"art":              true,
	"join":             true,
	"shop":             true,
	"search":           true,
	"tag":              true,
	"topic":            true,
	"users":            true,
	"watch":            true,
	"groups":           true,
	"forum":            true,
	"daily-deviations": true,
	"core-membership":  true,
}

// Parse normalizes a free-form URL or domain/user string into a profile
// descriptor. Inputs that match none of the recognized shapes yield
// fileops.ErrInvalidName.
func Parse(raw string) (Descriptor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Descriptor{}, fmt.Errorf("%w: empty source", fileops.ErrInvalidName)
	}

	// Bare "domain/user" strings work by default-prepending a scheme.
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return Descriptor{}, fmt.Errorf("%w: %q is not a profile URL", fileops.ErrInvalidName, raw)
	}

	host := strings.ToLower(u.Hostname())
	segments := splitPath(u.EscapedPath())

	if host == "reddit.com" || strings.HasSuffix(host, ".reddit.com") {
		return parseReddit(segments, raw)
	}
	if host == "deviantart.com" || strings.HasSuffix(host, ".deviantart.com") {
		return parseDeviantArt(host, u, segments, raw)
	}
	return parseCustom(u, host, segments)
}

func parseReddit(segments []string, raw string) (Descriptor, error) {
	if len(segments) >= 2 && (segments[0] == "user" || segments[0] == "u") {
		user := segments[1]
		const origin = "https://www.reddit.com"
		return Descriptor{
			Service:     ServiceReddit,
			ServiceName: string(ServiceReddit),
			UserID:      user,
			Origin:      origin,
			SourceURL:   origin + "/user/" + user,
		}, nil
	}
	return Descriptor{}, fmt.Errorf("%w: %q has no /user/<id> segment", fileops.ErrInvalidName, raw)
}

// parseDeviantArt resolves the user id from, in priority order, a
// recognized subdomain, a ?q=gallery:<id> query parameter, or the first
// path segment.
func parseDeviantArt(host string, u *url.URL, segments []string, raw string) (Descriptor, error) {
	var user string

	if sub, ok := strings.CutSuffix(host, ".deviantart.com"); ok && sub != "www" && sub != "backend" {
		user = sub
	}
	if user == "" {
		if q := u.Query().Get("q"); strings.HasPrefix(q, "gallery:") {
			user = strings.TrimPrefix(q, "gallery:")
		}
	}
	if user == "" && len(segments) > 0 && !deviantartReserved[strings.ToLower(segments[0])] {
		user = segments[0]
	}

	if user == "" {
		return Descriptor{}, fmt.Errorf("%w: %q has no resolvable user", fileops.ErrInvalidName, raw)
	}

	const origin = "https://www.deviantart.com"
	return Descriptor{
		Service:     ServiceDeviantArt,
		ServiceName: string(ServiceDeviantArt),
		UserID:      user,
		Origin:      origin,
		SourceURL:   origin + "/" + user,
	}, nil
}

// parseCustom accepts /<service>/user/<id> on an arbitrary host, retaining
// the service token and host to build API endpoints later.
func parseCustom(u *url.URL, host string, segments []string) (Descriptor, error) {
	if len(segments) >= 3 && segments[1] == "user" {
		serviceName := strings.ToLower(segments[0])
		user := segments[2]
		origin := u.Scheme + "://" + u.Host
		return Descriptor{
			Service:     ServiceCustom,
			ServiceName: serviceName,
			UserID:      user,
			Origin:      origin,
			SourceURL:   origin + "/" + serviceName + "/user/" + user,
		}, nil
	}
	return Descriptor{}, fmt.Errorf("%w: %q matches no known profile shape", fileops.ErrInvalidName, u.String())
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
