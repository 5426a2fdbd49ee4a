package credentials

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const passwordSalt = "lazygrid-keyring-salt-v1"

// deriveFilePassword derives the file backend's password from the machine
// ID and user name, so it is stable across restarts but differs per machine.
func deriveFilePassword() (string, error) {
	machineID, err := machineID()
	if err != nil {
		machineID, _ = os.Hostname()
	}
	hash := sha256.Sum256([]byte(machineID + username() + passwordSalt))
	return base64.StdEncoding.EncodeToString(hash[:]), nil
}

func username() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("USERNAME"); u != "" {
		return u
	}
	// containers and service accounts often have neither
	return fmt.Sprintf("uid-%d", os.Getuid())
}

func machineID() (string, error) {
	switch runtime.GOOS {
	case "linux":
		for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
			if data, err := os.ReadFile(path); err == nil {
				if id := strings.TrimSpace(string(data)); id != "" {
					return id, nil
				}
			}
		}
		return os.Hostname()
	case "darwin":
		out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
		if err != nil {
			return os.Hostname()
		}
		return parseField(string(out), "IOPlatformUUID", "="), nil
	case "windows":
		out, err := exec.Command("wmic", "csproduct", "get", "UUID").Output()
		if err != nil {
			return os.Hostname()
		}
		for _, line := range strings.Split(string(out), "\n") {
			if line = strings.TrimSpace(line); line != "" && line != "UUID" {
				return line, nil
			}
		}
		return os.Hostname()
	default:
		return os.Hostname()
	}
}

// parseField finds the line mentioning name and returns the quoted value
// after sep
func parseField(out, name, sep string) string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, name) {
			continue
		}
		if _, v, ok := strings.Cut(line, sep); ok {
			return strings.Trim(strings.TrimSpace(v), `"`)
		}
	}
	return ""
}
