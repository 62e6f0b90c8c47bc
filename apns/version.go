package apns

// version is bumped on every release that changes wire behavior.
const version = "1.0.0"

// Version returns the client library's version string.
func Version() string {
	return version
}
