package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshview/internal/decode"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/internal/viewer"
)

// modelInfo summarizes one decoded file.
type modelInfo struct {
	Path      string
	Size      int64
	Format    decode.Format
	Sniffed   string // Extension recognized from content, empty if unknown
	Mismatch  bool   // Content looks like a different format than the name says
	Meshes    int
	Clouds    int
	Triangles int
	Vertices  int
	Points    int
	Clips     int
	Bounds    scene.Box3
	Scale     float32 // Normalization scale, 0 for degenerate models
	Err       error
}

func newInfoCmd() *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "info <model>...",
		Short: "Display model information",
		Long:  "Decode each file and print its format, geometry counts, animation clips and bounding box.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := inspectAll(cmd.Context(), args, jobs)
			if err != nil {
				return err
			}
			return writeInfo(cmd.OutOrStdout(), infos)
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Files decoded in parallel")
	return cmd
}

// inspectAll decodes paths concurrently. Per-file failures are recorded in the
// results; only cancellation stops the run.
func inspectAll(ctx context.Context, paths []string, jobs int) ([]modelInfo, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	infos := make([]modelInfo, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			infos[i] = inspect(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

func inspect(path string) modelInfo {
	info := modelInfo{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		info.Err = err
		return info
	}
	info.Size = int64(len(data))

	if ext, ok := decode.Sniff(data); ok {
		info.Sniffed = ext
		named, errNamed := decode.Lookup(path)
		sniffed, errSniffed := decode.Lookup("x" + ext)
		info.Mismatch = errNamed == nil && errSniffed == nil && named.Format != sniffed.Format
	}

	res, err := decode.Decode(filepath.Base(path), data)
	if err != nil {
		info.Err = err
		return info
	}
	info.Format = res.Format
	info.Clips = len(res.Clips)
	info.Bounds = scene.BoxFromNode(res.Object)
	res.Object.Traverse(func(n *scene.Node) {
		if n.Geometry == nil {
			return
		}
		switch n.Kind {
		case scene.KindMesh:
			info.Meshes++
			info.Triangles += n.Geometry.TriangleCount()
			info.Vertices += len(n.Geometry.Positions)
		case scene.KindPoints:
			info.Clouds++
			info.Points += len(n.Geometry.Positions)
		}
	})
	if t, err := viewer.DefaultNormalizer().Normalize(res.Object, 0); err == nil {
		info.Scale = t.Scale
	}
	return info
}

// writeInfo prints infos and reports whether any file failed.
func writeInfo(w io.Writer, infos []modelInfo) error {
	failed := 0
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "File:       %s\n", info.Path)
		if info.Err != nil {
			failed++
			fmt.Fprintf(w, "Error:      %v\n", info.Err)
			continue
		}
		fmt.Fprintf(w, "Format:     %s\n", info.Format)
		if info.Mismatch {
			fmt.Fprintf(w, "Warning:    content looks like %s\n", info.Sniffed)
		}
		fmt.Fprintf(w, "Size:       %s\n", viewer.HumanSize(info.Size))
		fmt.Fprintf(w, "Meshes:     %d\n", info.Meshes)
		fmt.Fprintf(w, "Triangles:  %d\n", info.Triangles)
		fmt.Fprintf(w, "Vertices:   %d\n", info.Vertices)
		if info.Clouds > 0 {
			fmt.Fprintf(w, "Points:     %d in %d cloud(s)\n", info.Points, info.Clouds)
		}
		if info.Clips > 0 {
			fmt.Fprintf(w, "Clips:      %d\n", info.Clips)
		}
		if !info.Bounds.IsEmpty() {
			size, center := info.Bounds.Size(), info.Bounds.Center()
			fmt.Fprintf(w, "Dimensions: %.3f x %.3f x %.3f\n", size.X(), size.Y(), size.Z())
			fmt.Fprintf(w, "Center:     (%.3f, %.3f, %.3f)\n", center.X(), center.Y(), center.Z())
		}
		if info.Scale > 0 {
			fmt.Fprintf(w, "Fit scale:  %.4f\n", info.Scale)
		} else {
			fmt.Fprintf(w, "Fit scale:  degenerate\n")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(infos))
	}
	return nil
}
