package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/meshview/internal/decode/decodetest"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"glb", decodetest.GLB(), ".glb"},
		{"gltf", decodetest.GLTF(), ".gltf"},
		{"fbx", decodetest.FBX(), ".fbx"},
		{"3ds", decodetest.ThreeDS(), ".3ds"},
		{"ply", []byte(colorPLY), ".ply"},
		{"usdz", decodetest.USDZ(), ".usdz"},
		{"rsm", []byte("GRSM\x01\x04"), ".rsm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ok := Sniff(tt.data)
			assert.True(t, ok)
			assert.Equal(t, tt.want, ext)
		})
	}

	for _, data := range [][]byte{nil, []byte(cubeOBJ), []byte("GIF89a....")} {
		_, ok := Sniff(data)
		assert.False(t, ok, "%q", data)
	}
}
