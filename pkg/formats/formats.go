// Package formats provides parsers for 3D model file formats.
//
// Each parser turns raw bytes (or decoded text) into a format-level structure
// without building scene objects: OBJ, STL, PLY, 3DS, binary FBX, USDZ/USDA and
// the legacy RSM model format. glTF/GLB is handled by github.com/qmuntal/gltf.
package formats
