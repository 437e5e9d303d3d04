package calibrate

//go:generate go tool mockgen -source=channel.go -destination=mock_channel.go -package=calibrate

// Channel is the command channel the calibrator drives.
type Channel interface {
	DoGet(module, key string) (string, error)
	DoSet(module, key, value string, bare bool) (string, error)
	Online() bool
}
