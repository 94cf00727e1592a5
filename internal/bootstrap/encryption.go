package bootstrap

import (
	"log/slog"

	"github.com/target/campus-auth/internal/cryptoutil"
)

// CreateSealer creates an AES-GCM sealer from the provided key.
// If the key is a 64-character hex string it is used directly; otherwise it is hashed.
// Returns a noop sealer if the key is empty or invalid (with a log line).
//
//nolint:ireturn // Returning interface is intentional for sealer abstraction
func CreateSealer(key string, logger *slog.Logger) cryptoutil.Sealer {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		logger.Info("storage encryption key is empty, session stored unencrypted")
		return cryptoutil.Noop{}
	}

	keyBytes, err := cryptoutil.KeyFromPassphrase(key)
	if err == nil {
		var sealer *cryptoutil.AESGCM
		if sealer, err = cryptoutil.NewAESGCM(keyBytes); err == nil {
			return sealer
		}
	}
	logger.Warn("failed to create sealer, session stored unencrypted", "error", err)
	return cryptoutil.Noop{}
}
