package utils

import (
	"fmt"
	"net/url"
)

func ValidateHTTPURL(urlStr string) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must start with https:// or http://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidateMintURL checks a configured mint URL. Mints are plain HTTP(S)
// endpoints; a query string or fragment almost certainly means a copy-paste
// mistake in the config, so those are rejected.
func ValidateMintURL(urlStr string) error {
	if err := ValidateHTTPURL(urlStr); err != nil {
		return err
	}
	u, _ := url.Parse(urlStr)
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("mint URL must not contain a query string or fragment")
	}
	return nil
}
