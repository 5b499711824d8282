package viewer

import (
	"fmt"
	"image"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/debug"
	"github.com/Faultbox/meshview/internal/engine/picking"
	"github.com/Faultbox/meshview/internal/engine/renderer"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/internal/logger"
)

// Overlay settings.
const (
	gridSize      = 20
	gridDivisions = 20
	selectionPad  = 0.02
)

var (
	gridColor      = scene.HexColor(0x444466)
	selectionColor = scene.HexColor(0xffcc00)
)

// completionBuffer bounds how many finished decodes wait for the next frame.
const completionBuffer = 16

// Viewer owns one viewing session: the scene, the models in it, the camera and
// the renderer. Every method except LoadAsync, ReloadAsync and Watch must be
// called from the goroutine that runs the frame loop.
type Viewer struct {
	config Config
	log    *zap.Logger

	Scene     *scene.Scene
	Registry  *Registry
	Transform *TransformController
	Camera    *camera.Perspective
	Controls  *camera.OrbitControls
	Renderer  *renderer.Renderer
	Player    *animation.Player

	picker     *picking.Picker
	clock      animation.Clock
	screenshot *debug.ScreenshotCapture

	completions chan completion
	done        chan struct{}
	inflight    *loadCounter
	onError     func(error)
	onLoad      func(*Model)

	showGrid bool
	closed   bool
}

// New creates a viewer with an empty scene.
func New(cfg Config) (*Viewer, error) {
	r, err := renderer.New(renderer.Config{Width: cfg.Width, Height: cfg.Height})
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	if cfg.Normalizer.TargetSize <= 0 {
		cfg.Normalizer = DefaultNormalizer()
	}
	if cfg.Headroom <= 0 {
		cfg.Headroom = camera.DefaultHeadroom
	}

	s := scene.New()
	s.Background = scene.HexColor(cfg.Background)
	r.Background = s.Background
	r.Wireframe = cfg.Wireframe
	if cfg.LightIntensity > 0 {
		r.Lights.SetIntensity(cfg.LightIntensity)
	}

	cam := camera.NewPerspective(float32(cfg.Width) / float32(cfg.Height))
	if cfg.FOV > 0 {
		cam.FOV = cfg.FOV
	}
	controls := camera.NewOrbitControls(cam)
	controls.EnableDamping = cfg.EnableDamping
	if cfg.DampingFactor > 0 {
		controls.DampingFactor = cfg.DampingFactor
	}
	if cfg.MaxDistance > 0 {
		controls.MinDistance = cfg.MinDistance
		controls.MaxDistance = cfg.MaxDistance
	}
	if cfg.AutoRotateSpeed != 0 {
		controls.AutoRotateSpeed = cfg.AutoRotateSpeed
	}
	controls.AutoRotate = cfg.AutoRotate

	reg := NewRegistry(s)
	v := &Viewer{
		config:      cfg,
		log:         logger.Named("viewer"),
		Scene:       s,
		Registry:    reg,
		Transform:   NewTransformController(reg),
		Camera:      cam,
		Controls:    controls,
		Renderer:    r,
		Player:      animation.NewPlayer(),
		picker:      picking.NewPicker(),
		screenshot:  debug.NewScreenshotCapture(cfg.ScreenshotDir, cfg.ScreenshotPrefix, cfg.ScreenshotFormat),
		completions: make(chan completion, completionBuffer),
		done:        make(chan struct{}),
		inflight:    newLoadCounter(),
		showGrid:    cfg.ShowGrid,
	}
	v.log.Debug("viewer created",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Float32("target_size", cfg.Normalizer.TargetSize),
	)
	return v, nil
}

// OnError sets the hook that receives load failures.
func (v *Viewer) OnError(fn func(error)) { v.onError = fn }

// OnLoad sets the hook called after a model is added.
func (v *Viewer) OnLoad(fn func(*Model)) { v.onLoad = fn }

func (v *Viewer) reportError(err error) {
	v.log.Warn("load failed", zap.Error(err))
	if v.onError != nil {
		v.onError(err)
	}
}

// Resize changes the viewport size.
func (v *Viewer) Resize(width, height int) error {
	if err := v.Renderer.Resize(width, height); err != nil {
		return err
	}
	v.Camera.SetViewport(width, height)
	return nil
}

// RemoveModel drops the model at i, its selection and its animations.
func (v *Viewer) RemoveModel(i int) error {
	m, err := v.Registry.Remove(i)
	if err != nil {
		return err
	}
	if m.Mixer != nil {
		v.Player.Remove(m.Mixer)
	}
	v.log.Info("model removed", zap.String("name", m.Name), zap.String("id", m.ID))
	return nil
}

// ToggleModel flips the visibility of the model at i.
func (v *Viewer) ToggleModel(i int) error {
	return v.Registry.ToggleVisible(i)
}

// SelectModel selects the model at i.
func (v *Viewer) SelectModel(i int) error {
	return v.Registry.Select(i)
}

// Deselect clears the selection.
func (v *Viewer) Deselect() {
	v.Registry.Deselect()
}

// Pick casts a ray through pixel (px, py) of the viewport rect and selects the
// nearest visible model it hits, or clears the selection on a miss.
func (v *Viewer) Pick(px, py float32, rect picking.Rect) (int, bool) {
	ray := picking.ScreenToRay(px, py, rect, v.Camera.InvViewProjection())
	hit, ok := v.picker.Pick(ray, v.Registry.Roots())
	if !ok {
		v.log.Debug("pick missed", zap.Float32("x", px), zap.Float32("y", py))
		v.Registry.Deselect()
		return -1, false
	}
	v.log.Debug("pick hit",
		zap.Int("index", hit.Index),
		zap.String("node", hit.Node.Name),
		zap.Float32("distance", hit.Distance),
	)
	if err := v.Registry.Select(hit.Index); err != nil {
		return -1, false
	}
	return hit.Index, true
}

// ResetView frames the visible models, or every model when none is visible.
// It does nothing when the registry is empty.
func (v *Viewer) ResetView() bool {
	if v.Registry.Len() == 0 {
		return false
	}
	return v.frame(v.Registry.Bounds())
}

func (v *Viewer) frame(box scene.Box3) bool {
	if !camera.Frame(v.Camera, box, v.config.Headroom) {
		return false
	}
	v.Controls.Sync()
	return true
}

// SetWireframe draws every model as edges.
func (v *Viewer) SetWireframe(on bool) { v.Renderer.Wireframe = on }

// Wireframe reports whether wireframe is on.
func (v *Viewer) Wireframe() bool { return v.Renderer.Wireframe }

// SetAutoRotate turns the camera turntable on or off.
func (v *Viewer) SetAutoRotate(on bool) { v.Controls.AutoRotate = on }

// AutoRotate reports whether the turntable is on.
func (v *Viewer) AutoRotate() bool { return v.Controls.AutoRotate }

// SetPlaying pauses or resumes every animation.
func (v *Viewer) SetPlaying(on bool) { v.Player.SetPlaying(on) }

// Playing reports whether animations advance.
func (v *Viewer) Playing() bool { return v.Player.Playing() }

// SetBackground sets the clear color.
func (v *Viewer) SetBackground(c mgl32.Vec3) {
	v.Scene.Background = c
	v.Renderer.Background = c
}

// Background returns the clear color.
func (v *Viewer) Background() mgl32.Vec3 { return v.Scene.Background }

// SetLightIntensity rescales the light rig.
func (v *Viewer) SetLightIntensity(i float32) {
	v.config.LightIntensity = i
	v.Renderer.Lights.SetIntensity(i)
}

// LightIntensity returns the last intensity set.
func (v *Viewer) LightIntensity() float32 { return v.config.LightIntensity }

// SetShowGrid toggles the ground grid overlay.
func (v *Viewer) SetShowGrid(on bool) { v.showGrid = on }

// ShowGrid reports whether the grid is drawn.
func (v *Viewer) ShowGrid() bool { return v.showGrid }

// Render draws the scene and overlays without advancing time.
func (v *Viewer) Render() *image.RGBA {
	img := v.Renderer.Render(v.Scene.Root, v.Camera)
	if v.showGrid {
		v.Renderer.DrawLines(debug.GroundGrid(gridSize, gridDivisions), gridColor, v.Camera)
	}
	if m := v.Registry.Selected(); m != nil && m.Visible() {
		box := scene.BoxFromNode(m.Object)
		v.Renderer.DrawLines(debug.BoxEdges(box, selectionPad), selectionColor, v.Camera)
	}
	return img
}

// Screenshot renders one frame and saves it under a timestamped name.
func (v *Viewer) Screenshot() (string, error) {
	path, err := v.screenshot.CaptureFromImage(v.Render())
	if err != nil {
		return "", fmt.Errorf("saving screenshot: %w", err)
	}
	v.log.Info("screenshot saved", zap.String("path", path))
	return path, nil
}

// WriteScreenshot renders one frame and encodes it to w.
func (v *Viewer) WriteScreenshot(w io.Writer, format debug.ImageFormat) error {
	return debug.Encode(w, v.Render(), format)
}

// Close drops every model and animation. Loads still decoding are discarded.
func (v *Viewer) Close() {
	if v.closed {
		return
	}
	v.closed = true
	close(v.done)
	v.Registry.Clear()
	v.Player.Clear()
	v.log.Debug("viewer closed")
}
