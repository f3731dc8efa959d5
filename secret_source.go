package pgjwt

import (
	"fmt"
	"strings"

	"github.com/MrEthical07/pgjwt/secret"
)

// ResolveSecret picks the secret for this process: the host setting when non-empty, otherwise
// the file named by cfg.File. It returns [secret.ErrNotSet] when neither yields a value, which
// callers treat as the unconfigured state rather than a fault.
func ResolveSecret(hostValue []byte, cfg SecretConfig) ([]byte, error) {
	if len(hostValue) > 0 {
		return hostValue, nil
	}
	if strings.TrimSpace(cfg.File) == "" {
		return nil, fmt.Errorf("%w: host setting empty and no secret file configured", secret.ErrNotSet)
	}
	return secret.FromFile(cfg.File)
}
