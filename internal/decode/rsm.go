package decode

import (
	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/model"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/pkg/formats"
)

func decodeRSM(data []byte) (*scene.Node, []*animation.Clip, error) {
	doc, err := formats.ParseRSM(data)
	if err != nil {
		return nil, nil, err
	}
	return model.Build(doc, "", model.BuildOptions{})
}
