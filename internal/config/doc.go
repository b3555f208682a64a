// Package config defines the application's configuration structure and
// loading. Settings come from an optional config.yaml and SCROLL_-prefixed
// environment variables, with environment taking precedence, and are
// validated before use.
package config
