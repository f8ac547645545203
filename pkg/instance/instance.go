package instance

import (
	"os"

	"github.com/angelmondragon/ticketing-backend/pkg/env"
)

// GetID identifies the running process in logs. Explicit ids win over the
// platform dyno name, which wins over the hostname.
func GetID(serviceKind string) string {
	if id := env.First("TIX_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	if serviceKind == "" {
		serviceKind = "tix"
	}
	return serviceKind + "-0"
}
