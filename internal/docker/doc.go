// Package docker provides a thin wrapper around the Docker Engine SDK
// client: socket autodetection (DOCKER_HOST, platform default paths),
// a bounded Ping for backend probing, and an escape hatch to the raw SDK
// client for the native backend's container operations.
package docker
