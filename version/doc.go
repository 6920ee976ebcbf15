// Package version reports the build of the pipeflow binary.
//
// Release builds stamp it through -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/pipeflow/version.Version=1.2.0 \
//	    -X github.com/kbukum/pipeflow/version.GitBranch=release" ./cmd/pipeflow
//
// Unstamped builds fall back to the VCS information recorded by the Go
// toolchain.
package version
