package desktop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-adr/medistream/internal/notify"
)

func TestBeeepPermissionLifecycle(t *testing.T) {
	tests := []struct {
		mode string
		want notify.Permission
	}{
		{ModeAuto, notify.PermissionGranted},
		{"", notify.PermissionGranted},
		{ModeDenied, notify.PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			b := New(tt.mode, "")
			assert.Equal(t, notify.PermissionDefault, b.Permission())

			got, err := b.RequestPermission(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, b.Permission())
		})
	}
}
