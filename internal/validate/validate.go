// Package validate checks caller-supplied parameters against domain
// constraints before any external command is issued.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
)

// ValidationError: a caller-supplied parameter fails a domain constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var bundleIDPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*(\.[a-zA-Z][a-zA-Z0-9-]*)+$`)

// BundleID checks reverse-DNS bundle identifier syntax.
func BundleID(id string) error {
	if !bundleIDPattern.MatchString(id) {
		return &ValidationError{Field: "bundle id", Reason: fmt.Sprintf("%q is not a valid bundle identifier", id)}
	}
	return nil
}

// Coordinates rejects negative screen coordinates.
func Coordinates(x, y int) error {
	if x < 0 || y < 0 {
		return &ValidationError{Field: "coordinates", Reason: fmt.Sprintf("(%d,%d) must be non-negative", x, y)}
	}
	return nil
}

// LatLong checks geographic coordinate ranges.
func LatLong(lat, long float64) error {
	if lat < -90 || lat > 90 {
		return &ValidationError{Field: "latitude", Reason: fmt.Sprintf("%v out of range [-90,90]", lat)}
	}
	if long < -180 || long > 180 {
		return &ValidationError{Field: "longitude", Reason: fmt.Sprintf("%v out of range [-180,180]", long)}
	}
	return nil
}

// URL checks that raw parses and carries a scheme.
func URL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return &ValidationError{Field: "url", Reason: fmt.Sprintf("%q is not a valid URL", raw)}
	}
	return nil
}

// Permission services understood by simctl privacy.
var permissionServices = map[string]bool{
	"all": true, "calendar": true, "contacts": true, "location": true,
	"location-always": true, "photos": true, "photos-add": true,
	"media-library": true, "microphone": true, "motion": true,
	"reminders": true, "siri": true, "camera": true,
}

// PermissionService checks membership in the simctl privacy service set.
func PermissionService(service string) error {
	if !permissionServices[service] {
		return &ValidationError{Field: "permission service", Reason: fmt.Sprintf("unknown service %q", service)}
	}
	return nil
}

// PermissionAction checks the grant/revoke/reset action set.
func PermissionAction(action string) error {
	switch action {
	case "grant", "revoke", "reset":
		return nil
	}
	return &ValidationError{Field: "permission action", Reason: fmt.Sprintf("%q is not grant, revoke or reset", action)}
}
