// Package version reports the agent build and the bridge protocol it speaks.
package version

import "runtime"

// ProtocolVersion is advertised to the mobile app in pairing data and health frames.
const ProtocolVersion = "1.0.0"

// Set with -ldflags "-X github.com/massapay/massa-agent/pkg/version.version=...".
//
//nolint:gochecknoglobals // ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version  string `json:"version"`
	BuildID  string `json:"build_id"`
	Protocol string `json:"protocol"`
	Go       string `json:"go"`
}

func Get() Info {
	return Info{
		Version:  version,
		BuildID:  buildID,
		Protocol: ProtocolVersion,
		Go:       runtime.Version(),
	}
}

func GetVersion() string {
	return version
}

// GetFullVersion renders Info on one line.
func GetFullVersion() string {
	info := Get()

	return info.Version + " (build: " + info.BuildID + ", protocol: " + info.Protocol + ", " + info.Go + ")"
}
