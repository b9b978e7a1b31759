// Package desktop shows notification banners through the operating
// system's notification service.
package desktop

import (
	"context"
	gosync "sync"

	"github.com/gen2brain/beeep"

	"github.com/devel-adr/medistream/internal/notify"
)

// Mode values accepted from configuration.
const (
	ModeAuto   = "auto"
	ModeDenied = "denied"
)

// Beeep is a notify.Desktop backed by github.com/gen2brain/beeep. The OS
// offers no consent prompt for terminal programs, so the configured mode
// stands in for the user's answer: "denied" refuses, anything else grants
// on the first request.
type Beeep struct {
	mode     string
	iconPath string

	mu   gosync.Mutex
	perm notify.Permission
}

var _ notify.Desktop = (*Beeep)(nil)

// New creates a Beeep. mode "denied" refuses every permission request.
func New(mode, iconPath string) *Beeep {
	return &Beeep{mode: mode, iconPath: iconPath}
}

func (b *Beeep) Permission() notify.Permission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.perm
}

func (b *Beeep) RequestPermission(context.Context) (notify.Permission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.perm != notify.PermissionDefault {
		return b.perm, nil
	}
	if b.mode == ModeDenied {
		b.perm = notify.PermissionDenied
	} else {
		b.perm = notify.PermissionGranted
	}
	return b.perm, nil
}

// Show raises a banner.
func (b *Beeep) Show(title, message string) error {
	return beeep.Notify(title, message, b.iconPath)
}
