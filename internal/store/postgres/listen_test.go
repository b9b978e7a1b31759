package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/model"
)

func TestListenerDispatch(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []model.DatasetKind
	}{
		{"known kind", "tactics", []model.DatasetKind{model.KindTactics}},
		{"empty payload", "", model.Kinds()},
		{"unknown payload", "drug_dealer", model.Kinds()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []model.DatasetKind
			l := NewListener(nil, "medistream", zap.NewNop(), func(k model.DatasetKind) {
				got = append(got, k)
			})

			l.dispatch(tt.payload)

			assert.Equal(t, tt.want, got)
		})
	}
}
