// Package version reports the build version of the service binary.
//
// Version and Commit are set at link time:
//
//	go build -ldflags "-X github.com/ovaflus/ovaflus-auth/version.Version=1.4.0" ./cmd/ovaflus-auth
//
// Without ldflags the commit falls back to the VCS stamp embedded by the Go toolchain.
package version
