// Package util holds small helpers shared by the server and the CLI.
package util
