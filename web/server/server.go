package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
	"github.com/df07/go-progressive-raymarcher/pkg/loaders"
	"github.com/df07/go-progressive-raymarcher/pkg/renderer"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

// Parameter limits shared by the render and inspect endpoints
const (
	minDimension   = 16
	maxDimension   = 2000
	maxSampleCount = 64
	maxWorkers     = 256

	// The ray cache holds one ray per pixel per sample
	maxCachedRays = 8_000_000
)

// Server handles web requests for the progressive raymarcher
type Server struct {
	port      int
	scenesDir string
	staticDir string
	mux       *http.ServeMux
}

// NewServer creates a new web server. Scene files are discovered in scenesDir.
func NewServer(port int, scenesDir string) *Server {
	s := &Server{
		port:      port,
		scenesDir: scenesDir,
		staticDir: "static/",
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

// RenderRequest represents a render or inspect request from the client
type RenderRequest struct {
	Scene      string                `json:"scene"`      // Built-in scene ID or scene file ID
	Width      int                   `json:"width"`      // Image width
	Height     int                   `json:"height"`     // Image height
	MaxSamples int                   `json:"maxSamples"` // Passes until convergence
	Workers    int                   `json:"workers"`    // 0 = one per CPU
	Jitter     bool                  `json:"jitter"`     // Sub-pixel jitter after the first visit
	Camera     geometry.CameraConfig `json:"-"`          // Overrides; zero fields keep the scene's values
	Edit       *ShapeEdit            `json:"-"`          // Optional edit of one shape
}

// ShapeEdit changes one shape of the requested scene before rendering.
// Nil fields are left untouched.
type ShapeEdit struct {
	Index         int
	Position      *core.Vec3
	Radius        *float64
	Operation     *geometry.Operation
	BlendStrength *float64
}

func (s *Server) routes() {
	// Serve static files
	s.mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))

	// API endpoints
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
}

// Handler exposes the routes, mainly for httptest
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("starting web server", "url", "http://localhost"+addr, "scenes", s.scenesDir)
	return http.ListenAndServe(addr, s.mux)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and the scene files of the scenes directory
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleSceneConfig returns the configuration of a scene together with the
// parameter limits, so a client can build its edit controls
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("scene")
	if name == "" {
		name = "default"
	}

	sceneObj, _, err := loaders.ResolveScene(name, s.scenesDir)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := map[string]interface{}{
		"id":         name,
		"scene":      loaders.NewSceneFile(sceneObj),
		"operations": geometry.Operations(),
		"defaults": map[string]interface{}{
			"width":      600,
			"height":     480,
			"maxSamples": renderer.DefaultProgressiveConfig().MaxSamples,
		},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": minDimension, "max": maxDimension},
			"height":     map[string]int{"min": minDimension, "max": maxDimension},
			"maxSamples": map[string]int{"min": 1, "max": maxSampleCount},
			"workers":    map[string]int{"min": 0, "max": maxWorkers},
			"blend":      map[string]float64{"min": 0, "max": 1},
		},
	}
	writeJSON(w, http.StatusOK, response)
}

// parseCommonSceneParams parses the scene, image size, camera overrides and
// shape edit shared by render and inspect requests
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	values := r.URL.Query()

	req.Scene = values.Get("scene")
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 600, minDimension, maxDimension); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(values, "height", 480, minDimension, maxDimension); err != nil {
		return err
	}

	if req.Camera.Eye, _, err = parseVec3Param(values, "eye"); err != nil {
		return err
	}
	if req.Camera.Target, _, err = parseVec3Param(values, "target"); err != nil {
		return err
	}
	if req.Camera.VFov, err = parseFloatParam(values, "fov", 0, 1, 179); err != nil {
		return err
	}

	if !values.Has("shape") {
		return nil
	}
	edit := &ShapeEdit{}
	if edit.Index, err = parseIntParam(values, "shape", 0, 0, 1<<16); err != nil {
		return err
	}
	if position, ok, err := parseVec3Param(values, "position"); err != nil {
		return err
	} else if ok {
		edit.Position = &position
	}
	if values.Has("radius") {
		radius, err := parseFloatParam(values, "radius", 0, 0, 1000)
		if err != nil {
			return err
		}
		edit.Radius = &radius
	}
	if name := values.Get("op"); name != "" {
		op, err := geometry.ParseOperation(name)
		if err != nil {
			return err
		}
		edit.Operation = &op
	}
	if values.Has("blend") {
		k, err := parseFloatParam(values, "blend", 0, 0, 1)
		if err != nil {
			return err
		}
		edit.BlendStrength = &k
	}
	req.Edit = edit
	return nil
}

// createScene resolves the requested scene and applies camera overrides and
// the shape edit
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	sceneObj, _, err := loaders.ResolveScene(req.Scene, s.scenesDir)
	if err != nil {
		return nil, err
	}
	sceneObj.CameraConfig = geometry.MergeCameraConfig(sceneObj.CameraConfig, req.Camera)

	if edit := req.Edit; edit != nil {
		// ShapeAt does not check its index
		if edit.Index >= sceneObj.GetPrimitiveCount() {
			return nil, fmt.Errorf("shape %d out of range, scene %q has %d shapes",
				edit.Index, sceneObj.Name, sceneObj.GetPrimitiveCount())
		}
		shape := sceneObj.ShapeAt(edit.Index)
		if edit.Position != nil {
			shape.Position = *edit.Position
		}
		if edit.Radius != nil {
			shape.SetRadius(*edit.Radius)
		}
		if edit.Operation != nil {
			if err := shape.SetOperation(*edit.Operation); err != nil {
				return nil, err
			}
		}
		if edit.BlendStrength != nil {
			if err := shape.SetBlend(*edit.BlendStrength); err != nil {
				return nil, err
			}
		}
	}

	if err := sceneObj.Validate(); err != nil {
		return nil, err
	}
	return sceneObj, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseVec3Param parses an "x,y,z" parameter. The bool reports whether the
// parameter was present.
func parseVec3Param(values url.Values, key string) (core.Vec3, bool, error) {
	value := values.Get(key)
	if value == "" {
		return core.Vec3{}, false, nil
	}
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return core.Vec3{}, false, fmt.Errorf("invalid %s: expected x,y,z, got: %s", key, value)
	}
	var xyz [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return core.Vec3{}, false, fmt.Errorf("invalid %s: %s", key, value)
		}
		xyz[i] = f
	}
	v := core.NewVec3(xyz[0], xyz[1], xyz[2])
	if !v.IsFinite() {
		return core.Vec3{}, false, fmt.Errorf("invalid %s: components must be finite", key)
	}
	return v, true, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
