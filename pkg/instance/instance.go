package instance

import "os"

// idVars are checked in order; the first non-empty one names the running instance.
var idVars = []string{"WEBTEMPLATE_INSTANCE_ID", "DYNO", "HOSTNAME"}

// GetID returns an identifier for this process, falling back to "local".
func GetID() string {
	for _, key := range idVars {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
