package loaders

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

// ErrUnsupportedFormat is returned for scene files that are neither YAML nor TOML
var ErrUnsupportedFormat = errors.New("unsupported scene format")

// Format identifies a scene file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// SceneFile is the on-disk layout of a scene. Fields missing from a file keep
// the values of DefaultSceneFile.
type SceneFile struct {
	Name     string       `yaml:"name" toml:"name" json:"name"`
	Settings SettingsFile `yaml:"settings" toml:"settings" json:"settings"`
	Camera   CameraFile   `yaml:"camera" toml:"camera" json:"camera"`
	Shapes   []ShapeFile  `yaml:"shapes" toml:"shapes" json:"shapes"`
}

// SettingsFile mirrors scene.Settings
type SettingsFile struct {
	MaxMarchDistance float64    `yaml:"max_march_distance" toml:"max_march_distance" json:"max_march_distance"`
	HitEpsilon       float64    `yaml:"hit_epsilon" toml:"hit_epsilon" json:"hit_epsilon"`
	NormalEpsilon    float64    `yaml:"normal_epsilon" toml:"normal_epsilon" json:"normal_epsilon"`
	Light            [3]float64 `yaml:"light" toml:"light" json:"light"`
	PositionalLight  bool       `yaml:"positional_light" toml:"positional_light" json:"positional_light"`
}

// CameraFile mirrors geometry.CameraConfig; the aspect ratio comes from the
// renderer's image size
type CameraFile struct {
	Eye    [3]float64 `yaml:"eye" toml:"eye" json:"eye"`
	Target [3]float64 `yaml:"target" toml:"target" json:"target"`
	Up     [3]float64 `yaml:"up" toml:"up" json:"up"`
	VFov   float64    `yaml:"vfov" toml:"vfov" json:"vfov"`
	Near   float64    `yaml:"near" toml:"near" json:"near"`
	Far    float64    `yaml:"far" toml:"far" json:"far"`
}

// ShapeFile describes one sphere
type ShapeFile struct {
	Name          string             `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	Position      [3]float64         `yaml:"position" toml:"position" json:"position"`
	Radius        float64            `yaml:"radius" toml:"radius" json:"radius"`
	Color         [3]float64         `yaml:"color" toml:"color" json:"color"`
	Operation     geometry.Operation `yaml:"operation,omitempty" toml:"operation,omitempty" json:"operation,omitempty"`
	BlendStrength float64            `yaml:"blend_strength,omitempty" toml:"blend_strength,omitempty" json:"blend_strength,omitempty"`
}

// DefaultSceneFile returns the defaults applied to every loaded scene
func DefaultSceneFile() SceneFile {
	settings := scene.DefaultSettings()
	camera := geometry.DefaultCameraConfig()
	return SceneFile{
		Settings: SettingsFile{
			MaxMarchDistance: settings.MaxMarchDistance,
			HitEpsilon:       settings.HitEpsilon,
			NormalEpsilon:    settings.NormalEpsilon,
			Light:            settings.LightDirection.Array(),
			PositionalLight:  settings.UsePositionalLight,
		},
		Camera: CameraFile{
			Eye:    camera.Eye.Array(),
			Target: camera.Target.Array(),
			Up:     camera.Up.Array(),
			VFov:   camera.VFov,
			Near:   camera.Near,
			Far:    camera.Far,
		},
	}
}

// NewSceneFile converts a scene into its file layout
func NewSceneFile(s *scene.Scene) SceneFile {
	f := SceneFile{
		Name: s.Name,
		Settings: SettingsFile{
			MaxMarchDistance: s.Settings.MaxMarchDistance,
			HitEpsilon:       s.Settings.HitEpsilon,
			NormalEpsilon:    s.Settings.NormalEpsilon,
			Light:            s.Settings.LightDirection.Array(),
			PositionalLight:  s.Settings.UsePositionalLight,
		},
		Camera: CameraFile{
			Eye:    s.CameraConfig.Eye.Array(),
			Target: s.CameraConfig.Target.Array(),
			Up:     s.CameraConfig.Up.Array(),
			VFov:   s.CameraConfig.VFov,
			Near:   s.CameraConfig.Near,
			Far:    s.CameraConfig.Far,
		},
		Shapes: make([]ShapeFile, 0, len(s.Shapes)),
	}
	for _, shape := range s.Shapes {
		sf := ShapeFile{
			Name:      shape.Name,
			Position:  shape.Position.Array(),
			Radius:    shape.Radius(),
			Color:     shape.Color.Array(),
			Operation: shape.Operation,
		}
		if shape.Operation == geometry.OperationBlend {
			sf.BlendStrength = shape.BlendStrength
		}
		f.Shapes = append(f.Shapes, sf)
	}
	return f
}

// Scene builds and validates the scene described by the file
func (f SceneFile) Scene() (*scene.Scene, error) {
	cameraConfig := geometry.DefaultCameraConfig()
	cameraConfig.Eye = vec(f.Camera.Eye)
	cameraConfig.Target = vec(f.Camera.Target)
	cameraConfig.Up = vec(f.Camera.Up)
	cameraConfig.VFov = f.Camera.VFov
	cameraConfig.Near = f.Camera.Near
	cameraConfig.Far = f.Camera.Far
	if err := cameraConfig.Validate(); err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}

	settings := scene.Settings{
		MaxMarchDistance:   f.Settings.MaxMarchDistance,
		HitEpsilon:         f.Settings.HitEpsilon,
		NormalEpsilon:      f.Settings.NormalEpsilon,
		LightDirection:     vec(f.Settings.Light),
		UsePositionalLight: f.Settings.PositionalLight,
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s := scene.New(f.Name, settings, cameraConfig)
	for i, sf := range f.Shapes {
		name := sf.Name
		if name == "" {
			name = fmt.Sprintf("shape %d", i)
		}
		shape := geometry.NewSphere(name, vec(sf.Position), sf.Radius, vec(sf.Color))
		shape.Operation = sf.Operation
		shape.BlendStrength = sf.BlendStrength
		if err := s.AddShape(shape); err != nil {
			return nil, fmt.Errorf("shape %d (%s): %w", i, name, err)
		}
	}
	return s, nil
}

func vec(a [3]float64) core.Vec3 {
	return core.NewVec3(a[0], a[1], a[2])
}

// DecodeScene parses a scene in the given format. Unknown keys are errors.
func DecodeScene(data []byte, format Format) (*scene.Scene, error) {
	f := DefaultSceneFile()

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML scene: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse TOML scene: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return f.Scene()
}

// EncodeScene serializes a scene in the given format
func EncodeScene(s *scene.Scene, format Format) ([]byte, error) {
	f := NewSceneFile(s)

	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, fmt.Errorf("failed to encode YAML scene: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML scene: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		data, err := toml.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("failed to encode TOML scene: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// LoadScene reads a YAML or TOML scene file. A scene without a name is named
// after the file.
func LoadScene(path string) (*scene.Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	s, err := DecodeScene(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// SaveScene writes a scene with a "# Scene:" header so scene discovery can
// list it
func SaveScene(path string, s *scene.Scene) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := EncodeScene(s, format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if s.Name != "" {
		fmt.Fprintf(&buf, "# Scene: %s\n\n", s.Name)
	}
	buf.Write(data)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write scene file: %w", err)
	}
	return nil
}
