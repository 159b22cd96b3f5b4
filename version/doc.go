// Package version exposes the build version of repoauth binaries.
//
//	go build -ldflags "-X github.com/kbukum/repoauth/version.Version=v1.2.0"
package version
