package instance

import "github.com/angelmondragon/storefront/pkg/env"

// ID returns the identifier this process logs under: the platform dyno name,
// then the container hostname, then "local".
func ID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := env.Get(key, ""); id != "" {
			return id
		}
	}
	return "local"
}
