// Package ui provides ImGui-based user interface components.
package ui

import (
	"fmt"
	"image"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/meshview/internal/engine/input"
	"github.com/Faultbox/meshview/internal/engine/picking"
)

// Backend wraps the ImGui SDL backend.
type Backend struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
}

// NewBackend creates the window and initializes OpenGL.
func NewBackend(title string, width, height int32) (*Backend, error) {
	b := &Backend{}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	b.backend.SetBgColor(imgui.NewVec4(0.1, 0.1, 0.12, 1.0))
	b.backend.CreateWindow(title, int(width), int(height))

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init opengl: %w", err)
	}

	return b, nil
}

// SetWindowMode applies fullscreen and vsync to the backend's GL window. Call
// after NewBackend.
func (b *Backend) SetWindowMode(fullscreen, vsync bool) error {
	interval := 0
	if vsync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		return fmt.Errorf("swap interval: %w", err)
	}
	if !fullscreen {
		return nil
	}
	win, err := sdl.GLGetCurrentWindow()
	if err != nil {
		return fmt.Errorf("current window: %w", err)
	}
	return win.SetFullscreen(sdl.WINDOW_FULLSCREEN_DESKTOP)
}

// ShowError pops a native error box over the window.
func ShowError(title string, err error) {
	_ = sdl.ShowSimpleMessageBox(sdl.MESSAGEBOX_ERROR, title, err.Error(), nil)
}

// Run starts the main render loop.
func (b *Backend) Run(renderFunc func()) {
	b.backend.Run(renderFunc)
}

// SetWindowTitle updates the window title.
func (b *Backend) SetWindowTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// SetDropCallback receives paths of files dropped on the window.
func (b *Backend) SetDropCallback(fn func(paths []string)) {
	b.backend.SetDropCallback(fn)
}

// WorkArea returns the main viewport work area (below the menu bar).
func WorkArea() (posX, posY, width, height float32) {
	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()
	return workPos.X, workPos.Y, workSize.X, workSize.Y
}

// Viewport shows a software-rendered frame as an ImGui image and reports the
// pointer events made over it.
type Viewport struct {
	texID   uint32
	texW    int
	texH    int
	sampler input.Sampler
	rect    picking.Rect
	hovered bool
}

// Upload copies img into the viewport texture, reallocating it on resize.
func (v *Viewport) Upload(img *image.RGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}
	if v.texID == 0 {
		gl.GenTextures(1, &v.texID)
		gl.BindTexture(gl.TEXTURE_2D, v.texID)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	gl.BindTexture(gl.TEXTURE_2D, v.texID)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	if w != v.texW || h != v.texH {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		v.texW, v.texH = w, h
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w), int32(h),
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	}
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
}

// Draw places the texture at the cursor, sized to size, and records where it
// landed for pointer mapping.
func (v *Viewport) Draw(size imgui.Vec2) {
	pos := imgui.CursorScreenPos()
	if v.texID != 0 {
		texRef := imgui.NewTextureRefTextureID(imgui.TextureID(v.texID))
		imgui.ImageV(*texRef, size, imgui.NewVec2(0, 0), imgui.NewVec2(1, 1))
	} else {
		imgui.Dummy(size)
	}
	v.hovered = imgui.IsItemHovered()
	v.rect = picking.Rect{X: pos.X, Y: pos.Y, W: size.X, H: size.Y}
}

// Rect is the screen rectangle of the last Draw.
func (v *Viewport) Rect() picking.Rect { return v.rect }

// Hovered reports whether the pointer was over the last Draw.
func (v *Viewport) Hovered() bool { return v.hovered }

// PointerEvents polls ImGui's mouse state. Presses and wheel input only count
// while the viewport is hovered, so working a panel never moves the camera.
func (v *Viewport) PointerEvents() []input.Event {
	io := imgui.CurrentIO()
	mousePos := imgui.MousePos()
	s := input.Sample{
		X:     mousePos.X,
		Y:     mousePos.Y,
		Left:  imgui.IsMouseDown(imgui.MouseButtonLeft),
		Right: imgui.IsMouseDown(imgui.MouseButtonRight),
		Mid:   imgui.IsMouseDown(imgui.MouseButtonMiddle),
	}
	if v.hovered {
		s.Wheel = io.MouseWheel()
	}
	events := v.sampler.Events(s)
	if v.hovered {
		return events
	}
	kept := events[:0]
	for _, e := range events {
		if e.Type != input.EventPointerDown {
			kept = append(kept, e)
		}
	}
	return kept
}

// Release deletes the texture.
func (v *Viewport) Release() {
	if v.texID != 0 {
		gl.DeleteTextures(1, &v.texID)
		v.texID, v.texW, v.texH = 0, 0, 0
	}
}

// IsKeyPressed checks if a key was pressed this frame.
func IsKeyPressed(key imgui.Key) bool {
	return imgui.IsKeyChordPressed(imgui.KeyChord(key))
}
