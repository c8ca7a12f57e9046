package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
	"github.com/df07/go-progressive-raymarcher/pkg/renderer"
)

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	Hit        bool                   `json:"hit"`
	X          int                    `json:"x"`
	Y          int                    `json:"y"`
	Origin     [3]float64             `json:"origin"`
	Direction  [3]float64             `json:"direction"`
	Point      [3]float64             `json:"point"`
	Normal     [3]float64             `json:"normal"`
	Travelled  float64                `json:"travelled"`
	Distance   float64                `json:"distance"` // Field distance where the march stopped
	Steps      int                    `json:"steps"`
	Lambert    float64                `json:"lambert"`
	Color      string                 `json:"color"` // Shaded center-sample color, #rrggbb
	ShapeIndex int                    `json:"shapeIndex"`
	Shape      map[string]interface{} `json:"shape,omitempty"`
}

// handleInspect marches the center ray of one pixel and reports what it found
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}

	if err := s.parseCommonSceneParams(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A single sample keeps the ray cache to one row
	config := renderer.DefaultProgressiveConfig()
	config.MaxSamples = 1
	config.NumWorkers = 1
	pr, err := renderer.NewProgressiveRaymarcher(sceneObj, req.Width, req.Height, config, core.NopLogger{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := pr.Inspect(pixelX, pixelY)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newInspectResponse(result))
}

func newInspectResponse(result renderer.InspectResult) InspectResponse {
	response := InspectResponse{
		Hit:        result.Hit,
		X:          result.X,
		Y:          result.Y,
		Origin:     vecArray(result.Ray.Origin),
		Direction:  vecArray(result.Ray.Direction),
		Point:      vecArray(result.Point),
		Normal:     vecArray(result.Normal),
		Travelled:  result.Travelled,
		Distance:   result.Distance,
		Steps:      result.Steps,
		Lambert:    result.Lambert,
		Color:      hexColor(result.Shaded),
		ShapeIndex: result.ShapeIndex,
	}
	if result.Shape != nil {
		response.Shape = shapeProperties(*result.Shape)
	}
	return response
}

// shapeProperties flattens a shape for the inspector panel
func shapeProperties(shape geometry.Shape) map[string]interface{} {
	properties := map[string]interface{}{
		"name":      shape.Name,
		"position":  vecArray(shape.Position),
		"radius":    shape.Radius(),
		"color":     hexColor(renderer.ColorToRGB(shape.Color)),
		"operation": shape.Operation.String(),
	}
	if shape.Operation == geometry.OperationBlend {
		properties["blendStrength"] = shape.BlendStrength
	}
	return properties
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
