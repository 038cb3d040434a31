package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBundleID(t *testing.T) {
	valid := []string{
		"com.example.app",
		"com.example.my-app",
		"org.demo.kiosk.v2x",
	}
	for _, id := range valid {
		assert.NoError(t, BundleID(id), id)
	}

	invalid := []string{
		"",
		"noseparator",
		"com..example",
		".com.example",
		"com.example.",
		"com.3example.app",
		"not a bundle id",
	}
	for _, id := range invalid {
		assert.Error(t, BundleID(id), id)
	}
}

func TestCoordinates(t *testing.T) {
	assert.NoError(t, Coordinates(0, 0))
	assert.NoError(t, Coordinates(100, 200))
	assert.Error(t, Coordinates(-1, 0))
	assert.Error(t, Coordinates(0, -1))
}

func TestLatLong(t *testing.T) {
	assert.NoError(t, LatLong(0, 0))
	assert.NoError(t, LatLong(-90, 180))
	assert.NoError(t, LatLong(90, -180))
	assert.Error(t, LatLong(90.0001, 0))
	assert.Error(t, LatLong(-91, 0))
	assert.Error(t, LatLong(0, 180.5))
	assert.Error(t, LatLong(0, -181))
}

func TestURL(t *testing.T) {
	assert.NoError(t, URL("https://example.com/path"))
	assert.NoError(t, URL("myapp://deeplink/home"))
	assert.Error(t, URL("example.com"))
	assert.Error(t, URL(""))
	assert.Error(t, URL("://missing-scheme"))
}

func TestPermissionService(t *testing.T) {
	for _, svc := range []string{"all", "photos", "location-always", "camera"} {
		assert.NoError(t, PermissionService(svc), svc)
	}
	assert.Error(t, PermissionService("bluetooth"))
	assert.Error(t, PermissionService(""))
	assert.Error(t, PermissionService("Photos"))
}

func TestPermissionAction(t *testing.T) {
	for _, action := range []string{"grant", "revoke", "reset"} {
		assert.NoError(t, PermissionAction(action), action)
	}
	assert.Error(t, PermissionAction("allow"))
	assert.Error(t, PermissionAction(""))
}
