package decode

import (
	"bytes"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// Content types for model formats with a recognizable header. Text formats
// without a fixed magic (OBJ, ASCII STL) are not sniffed.
var (
	typeGLB  = filetype.NewType("glb", "model/gltf-binary")
	typeFBX  = filetype.NewType("fbx", "application/vnd.autodesk.fbx")
	typeRSM  = filetype.NewType("rsm", "application/x-ragnarok-rsm")
	typePLY  = filetype.NewType("ply", "model/x-ply")
	type3DS  = filetype.NewType("3ds", "application/x-3ds")
	typeGLTF = filetype.NewType("gltf", "model/gltf+json")
)

func init() {
	filetype.AddMatcher(typeGLB, func(buf []byte) bool {
		return bytes.HasPrefix(buf, []byte("glTF"))
	})
	filetype.AddMatcher(typeFBX, func(buf []byte) bool {
		return bytes.HasPrefix(buf, []byte("Kaydara FBX Binary"))
	})
	filetype.AddMatcher(typeRSM, func(buf []byte) bool {
		return bytes.HasPrefix(buf, []byte("GRSM"))
	})
	filetype.AddMatcher(typePLY, func(buf []byte) bool {
		return bytes.HasPrefix(buf, []byte("ply\n")) || bytes.HasPrefix(buf, []byte("ply\r\n"))
	})
	filetype.AddMatcher(type3DS, func(buf []byte) bool {
		// Main chunk 0x4D4D followed by a version chunk 0x0002.
		return len(buf) >= 8 && buf[0] == 0x4D && buf[1] == 0x4D && buf[6] == 0x02 && buf[7] == 0x00
	})
	filetype.AddMatcher(typeGLTF, func(buf []byte) bool {
		head := bytes.TrimLeft(buf, " \t\r\n\xef\xbb\xbf")
		return bytes.HasPrefix(head, []byte("{")) && bytes.Contains(buf, []byte(`"asset"`))
	})
}

// Sniff guesses a model extension (with leading dot) from the payload header.
// Zip archives are reported as ".usdz". ok is false when nothing matched.
func Sniff(data []byte) (ext string, ok bool) {
	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return "", false
	}
	if kind.Extension == "zip" {
		return ".usdz", true
	}
	if _, err := Lookup("." + kind.Extension); err != nil {
		return "", false
	}
	return "." + kind.Extension, true
}
