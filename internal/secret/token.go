// Package secret manages the feed token kept in the OS keyring.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/zalando/go-keyring"
)

// ErrTokenUnavailable is returned when the keyring cannot be used.
var ErrTokenUnavailable = errors.New(config.ErrTokenUnavailable)

// FeedToken returns the token protecting the local feed, generating and
// storing one on first use.
func FeedToken() (string, error) {
	token, err := keyring.Get(config.KeyringService, config.KeyringFeedUser)
	if err == nil && token != "" {
		return token, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}

	token, err = store()
	if err != nil {
		return "", err
	}
	slog.Info(config.MsgTokenCreated, config.LogKeyComponent, config.CompSecret)
	return token, nil
}

// RotateFeedToken replaces the stored token. Subscribed calendar clients
// must be updated with the new feed URL.
func RotateFeedToken() (string, error) {
	token, err := store()
	if err != nil {
		return "", err
	}
	slog.Info(config.MsgTokenRotated, config.LogKeyComponent, config.CompSecret)
	return token, nil
}

// DeleteFeedToken removes the stored token. Deleting a missing token is not
// an error.
func DeleteFeedToken() error {
	err := keyring.Delete(config.KeyringService, config.KeyringFeedUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}
	return nil
}

func store() (string, error) {
	token, err := generate()
	if err != nil {
		return "", err
	}
	if err := keyring.Set(config.KeyringService, config.KeyringFeedUser, token); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}
	return token, nil
}

func generate() (string, error) {
	buf := make([]byte, config.FeedTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrTokenGenerate, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
