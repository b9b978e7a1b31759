package otoplayer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeIsFloat32LittleEndian(t *testing.T) {
	buf := encode([]float32{0, 0.5, -1})

	assert.Len(t, buf, 12)
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])))
	assert.Equal(t, float32(-1), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])))
}
