// Package version reports the build identity of aggkit, used as the
// service.version of telemetry resources when none is configured.
//
// Version and Commit can be set at link time:
//
//	go build -ldflags "-X github.com/kbukum/aggkit/version.Version=1.2.0"
//
// Otherwise the module version and VCS revision recorded by the Go
// toolchain are used.
package version
