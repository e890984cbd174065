package storectl

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

const sessionKeyBytes = 32

// NewSessionKey returns a random key suitable for STOREFRONT_SESSION_SECRET.
func NewSessionKey() (string, error) {
	buf := make([]byte, sessionKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func newSessionKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session-key",
		Short: "Print a random session signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := NewSessionKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
