package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/ui"
	"github.com/Faultbox/meshview/internal/viewer"
)

// Layout dimensions
const (
	modelsPanelWidth = float32(300)
	viewPanelWidth   = float32(240)
	statusBarHeight  = float32(30)
)

// render is called each frame to draw the UI.
func (app *App) render() {
	app.drainErrors()
	app.handleKeys()
	app.renderMenuBar()

	x, y, w, h := ui.WorkArea()
	contentHeight := h - statusBarHeight
	viewportWidth := w - modelsPanelWidth - viewPanelWidth

	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	// Left panel - Models and transform
	imgui.SetNextWindowPos(imgui.NewVec2(x, y))
	imgui.SetNextWindowSize(imgui.NewVec2(modelsPanelWidth, contentHeight))
	if imgui.BeginV("Models", nil, flags) {
		app.renderModelList()
		imgui.Separator()
		app.renderTransformPanel()
		imgui.Separator()
		app.renderImportPanel()
	}
	imgui.End()

	// Center - Viewport
	imgui.SetNextWindowPos(imgui.NewVec2(x+modelsPanelWidth, y))
	imgui.SetNextWindowSize(imgui.NewVec2(viewportWidth, contentHeight))
	imgui.PushStyleVarVec2(imgui.StyleVarWindowPadding, imgui.NewVec2(0, 0))
	viewFlags := flags | imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar | imgui.WindowFlagsNoScrollWithMouse
	if imgui.BeginV("##Viewport", nil, viewFlags) {
		app.renderViewport()
	}
	imgui.End()
	imgui.PopStyleVar()

	// Right panel - View options
	imgui.SetNextWindowPos(imgui.NewVec2(x+modelsPanelWidth+viewportWidth, y))
	imgui.SetNextWindowSize(imgui.NewVec2(viewPanelWidth, contentHeight))
	if imgui.BeginV("View", nil, flags) {
		app.renderViewOptions()
	}
	imgui.End()

	// Status bar at bottom
	imgui.SetNextWindowPos(imgui.NewVec2(x, y+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(w, statusBarHeight))
	statusFlags := flags | imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar
	if imgui.BeginV("##StatusBar", nil, statusFlags) {
		app.renderStatusBar()
	}
	imgui.End()
}

// handleKeys applies keyboard shortcuts unless a text field has focus.
func (app *App) handleKeys() {
	if imgui.CurrentIO().WantTextInput() {
		return
	}
	v := app.viewer
	switch {
	case ui.IsKeyPressed(imgui.KeyF12):
		app.screenshot()
	case ui.IsKeyPressed(imgui.KeyDelete):
		app.removeSelected()
	case ui.IsKeyPressed(imgui.KeyEscape):
		v.Deselect()
	case ui.IsKeyPressed(imgui.KeyF):
		v.ResetView()
	case ui.IsKeyPressed(imgui.KeyW):
		v.SetWireframe(!v.Wireframe())
	case ui.IsKeyPressed(imgui.KeyG):
		v.SetShowGrid(!v.ShowGrid())
	case ui.IsKeyPressed(imgui.KeyR):
		v.SetAutoRotate(!v.AutoRotate())
	case ui.IsKeyPressed(imgui.KeySpace):
		v.SetPlaying(!v.Playing())
	}
}

func (app *App) renderMenuBar() {
	if !imgui.BeginMainMenuBar() {
		return
	}
	if imgui.BeginMenu("File") {
		if imgui.MenuItemBool("Open Model...") {
			app.openFileDialog()
		}
		if imgui.MenuItemBool("Save Screenshot") {
			app.screenshot()
		}
		imgui.Separator()
		if imgui.MenuItemBool("Exit") {
			app.Close()
			os.Exit(0)
		}
		imgui.EndMenu()
	}
	if imgui.BeginMenu("View") {
		if imgui.MenuItemBool("Reset View") {
			app.viewer.ResetView()
		}
		if imgui.MenuItemBool("Deselect") {
			app.viewer.Deselect()
		}
		imgui.EndMenu()
	}
	imgui.EndMainMenuBar()
}

// renderViewport renders a frame at the panel's size and feeds pointer input
// back into the camera and picker.
func (app *App) renderViewport() {
	avail := imgui.ContentRegionAvail()
	w, h := int(avail.X), int(avail.Y)
	if w <= 0 || h <= 0 {
		return
	}
	if rw, rh := app.viewer.Renderer.Size(); rw != w || rh != h {
		if err := app.viewer.Resize(w, h); err != nil {
			app.fail(err)
			return
		}
	}

	img := app.viewer.Frame(time.Now())
	app.viewport.Upload(img)
	app.viewport.Draw(avail)

	for _, e := range app.viewport.PointerEvents() {
		app.viewer.HandlePointer(app.pointer.Handle(e), app.viewport.Rect())
	}

	if app.viewer.Registry.Len() == 0 {
		imgui.SetCursorPos(imgui.NewVec2(12, 12))
		imgui.TextDisabled("Drop model files here or use File > Open Model...")
	}
}

func (app *App) renderModelList() {
	reg := app.viewer.Registry
	if reg.Len() == 0 {
		imgui.TextDisabled("No models loaded")
		return
	}

	selected := reg.SelectedIndex()
	remove := -1
	for i, m := range reg.Models() {
		imgui.PushIDInt(int32(i))
		visible := m.Visible()
		if imgui.Checkbox("##visible", &visible) {
			if err := app.viewer.ToggleModel(i); err != nil {
				app.fail(err)
			}
		}
		if imgui.IsItemHovered() {
			imgui.SetTooltip("Show or hide")
		}
		imgui.SameLine()
		label := fmt.Sprintf("%s  %s", m.Name, m.Size())
		width := imgui.ContentRegionAvail().X - 30
		if imgui.SelectableBoolV(label, i == selected, 0, imgui.NewVec2(width, 0)) {
			if err := app.viewer.SelectModel(i); err != nil {
				app.fail(err)
			}
		}
		imgui.SameLine()
		if imgui.Button("X") {
			remove = i
		}
		imgui.PopID()
	}

	if remove >= 0 {
		if err := app.viewer.RemoveModel(remove); err != nil {
			app.fail(err)
		}
	}
}

func (app *App) renderTransformPanel() {
	imgui.Text("Transform")
	t := app.viewer.Transform
	view, err := t.View()
	if err != nil {
		imgui.TextDisabled("Select a model to transform")
		return
	}
	m := app.viewer.Registry.Selected()
	imgui.TextWrapped(fmt.Sprintf("%s (%s)", m.Name, m.Format))

	axes := []viewer.Axis{viewer.AxisX, viewer.AxisY, viewer.AxisZ}

	imgui.Text("Position:")
	for _, a := range axes {
		v := view.Position[a]
		if imgui.DragFloatV(strings.ToUpper(a.String())+"##pos", &v, 0.05, -100, 100, "%.2f", imgui.SliderFlagsNone) {
			app.check(t.SetPosition(a, v))
		}
	}

	imgui.Text("Rotation:")
	for _, a := range axes {
		v := view.RotationDegrees[a]
		if imgui.SliderFloatV(strings.ToUpper(a.String())+"##rot", &v, -360, 360, "%.0f deg", imgui.SliderFlagsNone) {
			app.check(t.SetRotationDegrees(a, v))
		}
	}

	imgui.Text("Scale:")
	scale := view.ScaleMultiplier
	if imgui.SliderFloatV("##scale", &scale, 0.1, 5, "%.2fx", imgui.SliderFlagsNone) {
		app.check(t.SetScaleMultiplier(scale))
	}

	if imgui.Button("Reset Transform") {
		app.check(t.Reset())
	}
	imgui.SameLine()
	if imgui.Button("Remove") {
		app.removeSelected()
	}

	if len(m.Clips) > 0 {
		imgui.Spacing()
		imgui.TextColored(imgui.NewVec4(0.4, 0.8, 0.4, 1), fmt.Sprintf("%d animation clip(s)", len(m.Clips)))
		for _, c := range m.Clips {
			imgui.Text(fmt.Sprintf("  %s (%.2fs)", c.Name, c.Duration))
		}
	}
}

func (app *App) renderImportPanel() {
	imgui.Text("Import")

	imgui.SetNextItemWidth(-1)
	imgui.InputTextWithHint("##url", "Model URL", &app.urlText, 0, nil)
	if imgui.Button("Open URL") {
		if url := strings.TrimSpace(app.urlText); url != "" {
			app.OpenURL(url)
		}
	}
	if n := app.downloads.Load(); n > 0 {
		imgui.SameLine()
		imgui.TextDisabled(fmt.Sprintf("downloading %d...", n))
	}

	imgui.Spacing()
	if app.meshy == nil {
		imgui.TextDisabled("Image to 3D needs an API key")
		return
	}
	imgui.SetNextItemWidth(-1)
	imgui.InputTextWithHint("##image", "Image URL", &app.imageText, 0, nil)
	if p := app.progress.Load(); p >= 0 {
		imgui.ProgressBarV(float32(p)/100, imgui.NewVec2(-1, 0), fmt.Sprintf("Generating %d%%", p))
	} else if imgui.Button("Generate Model") {
		if img := strings.TrimSpace(app.imageText); img != "" {
			app.Generate(img)
		}
	}
}

func (app *App) renderViewOptions() {
	v := app.viewer

	wireframe := v.Wireframe()
	if imgui.Checkbox("Wireframe (W)", &wireframe) {
		v.SetWireframe(wireframe)
	}
	autoRotate := v.AutoRotate()
	if imgui.Checkbox("Auto-rotate (R)", &autoRotate) {
		v.SetAutoRotate(autoRotate)
	}
	grid := v.ShowGrid()
	if imgui.Checkbox("Grid (G)", &grid) {
		v.SetShowGrid(grid)
	}
	playing := v.Playing()
	if imgui.Checkbox("Animations (Space)", &playing) {
		v.SetPlaying(playing)
	}

	imgui.Spacing()
	imgui.Text("Light intensity:")
	light := v.LightIntensity()
	imgui.SetNextItemWidth(-1)
	if imgui.SliderFloatV("##light", &light, 0, 3, "%.1f", imgui.SliderFlagsNone) {
		v.SetLightIntensity(light)
	}

	imgui.Text("Background:")
	bg := [3]float32(v.Background())
	imgui.SetNextItemWidth(-1)
	if imgui.ColorEdit3("##background", &bg) {
		v.SetBackground(mgl32.Vec3(bg))
	}

	imgui.Spacing()
	if imgui.ButtonV("Reset View (F)", imgui.NewVec2(-1, 0)) {
		v.ResetView()
	}
	if imgui.ButtonV("Screenshot (F12)", imgui.NewVec2(-1, 0)) {
		app.screenshot()
	}
}

func (app *App) renderStatusBar() {
	v := app.viewer
	stats := v.Renderer.Stats()
	imgui.Text(fmt.Sprintf("Models: %d | Triangles: %d | Points: %d", v.Registry.Len(), stats.Triangles, stats.Points))

	if m := v.Registry.Selected(); m != nil {
		imgui.SameLine()
		imgui.Text("| Selected: " + m.Name)
	}
	if app.status != "" && time.Since(app.statusTime) < statusDuration {
		imgui.SameLine()
		imgui.TextColored(imgui.NewVec4(0.2, 1.0, 0.2, 1.0), "| "+app.status)
	}
}

func (app *App) check(err error) {
	if err != nil {
		app.fail(err)
	}
}
