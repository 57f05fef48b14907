package qsdk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const keyringService = "qwell"

// normalizeKey converts a baseURL into a stable key name for keyring storage.
func normalizeKey(baseURL string) string {
	s := strings.TrimSpace(baseURL)
	s = strings.TrimRight(s, "/")
	s = strings.ToLower(s)
	return s
}

func refreshKey(baseURL string) string { return normalizeKey(baseURL) + "#refresh" }
func emailKey(baseURL string) string   { return normalizeKey(baseURL) + "#email" }

// SaveTokens stores the access/refresh pair for baseURL in the OS keyring.
func SaveTokens(baseURL, access, refresh string) error {
	if err := keyring.Set(keyringService, normalizeKey(baseURL), access); err != nil {
		return err
	}
	return keyring.Set(keyringService, refreshKey(baseURL), refresh)
}

// LoadTokens returns the stored pair. Missing entries come back empty; any
// other keyring failure is returned so it is not mistaken for a logout.
func LoadTokens(baseURL string) (access, refresh string, err error) {
	if access, err = get(normalizeKey(baseURL)); err != nil {
		return "", "", err
	}
	if refresh, err = get(refreshKey(baseURL)); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// SaveEmail remembers which account the stored tokens belong to, so an
// expired access token can be renewed by logging in again.
func SaveEmail(baseURL, email string) error {
	return keyring.Set(keyringService, emailKey(baseURL), email)
}

func LoadEmail(baseURL string) (string, error) {
	return get(emailKey(baseURL))
}

func get(key string) (string, error) {
	v, err := keyring.Get(keyringService, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s from keyring: %w", key, err)
	}
	return v, nil
}

// DeleteCredentials removes everything stored for baseURL. Entries that were
// never written are not an error.
func DeleteCredentials(baseURL string) error {
	var errs []error
	for _, key := range []string{normalizeKey(baseURL), refreshKey(baseURL), emailKey(baseURL)} {
		if err := keyring.Delete(keyringService, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
