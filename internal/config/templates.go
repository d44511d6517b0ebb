package config

import (
	"fmt"
	"os"
)

// WriteTemplate writes a starter hyperion-echo TOML config to path,
// refusing to clobber an existing file unless overwrite is set.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(echoTemplate), 0o600)
}

const echoTemplate = `listen_addr = "127.0.0.1:9801"
dial_addr = "127.0.0.1:9801"
mode = "smart"
log_level = "info"
`
