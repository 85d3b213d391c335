package updater

// Status is the coordinator's position in the update cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusChecking
	StatusDownloading
	StatusReadyToInstall
	StatusInstalling
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusChecking:
		return "checking"
	case StatusDownloading:
		return "downloading"
	case StatusReadyToInstall:
		return "ready"
	case StatusInstalling:
		return "installing"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
