// Package config loads, normalizes, and validates echonote's TOML
// configuration. Path fields are tilde-expanded and made absolute during
// Load; defaults apply for any field left unset.
package config
