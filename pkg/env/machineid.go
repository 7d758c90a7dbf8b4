package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
)

// MachineID retrieves an ID identifying the machine, derived from the
// system machine ID and hashed with the application name. It falls back to
// the host name.
func MachineID() string {
	if id, err := machineid.ProtectedID("chimu"); err == nil {
		return id[:12]
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "unknown"
}
