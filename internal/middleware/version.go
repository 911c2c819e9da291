package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// APIVersion describes the lifecycle of one API version.
type APIVersion struct {
	Version    string     `json:"version"`
	Status     string     `json:"status"` // active, deprecated
	SunsetDate *time.Time `json:"sunset_date,omitempty"`
}

type VersionMiddleware struct {
	versions map[string]APIVersion
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{versions: map[string]APIVersion{
		"v1": {Version: "v1", Status: "active"},
	}}
}

// VersionRoute creates the route group of a version and tags its responses.
func (vm *VersionMiddleware) VersionRoute(e *echo.Echo, version string) *echo.Group {
	group := e.Group("/" + version)
	group.Use(vm.versionHeader(version))
	return group
}

func (vm *VersionMiddleware) versionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-API-Version", version)
			if v, ok := vm.versions[version]; ok && v.Status == "deprecated" && v.SunsetDate != nil {
				h.Set("Deprecation", "true")
				h.Set("Sunset", v.SunsetDate.UTC().Format(http.TimeFormat))
			}
			return next(c)
		}
	}
}

// Deprecate marks a version deprecated with the date it goes away.
func (vm *VersionMiddleware) Deprecate(version string, sunset time.Time) {
	v := vm.versions[version]
	v.Version = version
	v.Status = "deprecated"
	v.SunsetDate = &sunset
	vm.versions[version] = v
}

// Versions lists every known version and its lifecycle status.
func (vm *VersionMiddleware) Versions() map[string]APIVersion {
	return vm.versions
}
