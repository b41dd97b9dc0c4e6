// Package version holds the application version, set at build time with
// -ldflags "-X github.com/ndewijer/Finance-Ledger-Backend/internal/version.Version=1.2.3".
package version

var Version = "dev"
