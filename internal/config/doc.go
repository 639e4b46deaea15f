// Package config resolves the supervised service's configuration.
//
// Sources are layered, later ones winning: built-in defaults, the JSONC
// settings file (rfc_auto_docker and port overrides), a .env file loaded
// into the process environment via godotenv, and finally the AGENT_ZERO_*
// environment variables. The result is an immutable ServiceConfig passed
// into the supervisor at startup.
package config
