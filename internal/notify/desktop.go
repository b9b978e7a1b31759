package notify

import "context"

// Permission is the state of the user's consent to desktop notifications.
type Permission int

const (
	// PermissionDefault means the user has not decided yet.
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "default"
	}
}

// Desktop shows OS-level notification banners.
type Desktop interface {
	Permission() Permission
	// RequestPermission asks for consent and returns the decision.
	RequestPermission(ctx context.Context) (Permission, error)
	Show(title, message string) error
}

// TonePlayer plays a named tone. It reports whether playback started.
type TonePlayer interface {
	Play(name string, volume float64) bool
}
