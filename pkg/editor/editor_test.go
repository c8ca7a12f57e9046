package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
	"github.com/df07/go-progressive-raymarcher/pkg/renderer"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

func newEditor(t *testing.T, s *scene.Scene) (*Editor, *renderer.ProgressiveRaymarcher) {
	t.Helper()
	config := renderer.DefaultProgressiveConfig()
	config.MaxSamples = 2
	config.NumWorkers = 2
	pr, err := renderer.NewProgressiveRaymarcher(s, 16, 12, config, core.NopLogger{})
	require.NoError(t, err)
	return New(pr, DefaultConfig(), nil), pr
}

func converge(t *testing.T, pr *renderer.ProgressiveRaymarcher) {
	t.Helper()
	for !pr.Converged() {
		_, err := pr.Update()
		require.NoError(t, err)
	}
}

func TestEditor_MoveTranslatesEyeAndTarget(t *testing.T) {
	e, pr := newEditor(t, scene.NewDefaultScene())
	converge(t, pr)

	tests := []struct {
		action Action
		delta  core.Vec3
	}{
		// Default camera looks down +Z with +Y up, so screen right is -X
		{MoveRight, core.NewVec3(-0.1, 0, 0)},
		{MoveLeft, core.NewVec3(0.1, 0, 0)},
		{MoveUp, core.NewVec3(0, 0.1, 0)},
		{MoveDown, core.NewVec3(0, -0.1, 0)},
		{MoveForward, core.NewVec3(0, 0, 0.1)},
		{MoveBack, core.NewVec3(0, 0, -0.1)},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			before := pr.Camera().Config()
			generation := pr.RayCacheGeneration()
			require.NoError(t, e.Apply(tt.action))

			after := pr.Camera().Config()
			assertVecNear(t, before.Eye.Add(tt.delta), after.Eye)
			assertVecNear(t, before.Target.Add(tt.delta), after.Target)
			assert.Equal(t, 0, pr.CurrentSample(), "camera moves restart sampling")
			assert.Equal(t, generation+1, pr.RayCacheGeneration(), "camera moves drop cached rays")
		})
	}
}

func TestEditor_ShapeEdits(t *testing.T) {
	e, pr := newEditor(t, scene.NewDefaultScene())
	converge(t, pr)
	generation := pr.RayCacheGeneration()

	require.NoError(t, e.Apply(GrowRadius))
	assert.InDelta(t, 1.05, pr.ShapeAt(0).Radius(), 1e-12)
	assert.Equal(t, 0, pr.CurrentSample())

	converge(t, pr)
	require.NoError(t, e.Apply(ShrinkRadius))
	require.NoError(t, e.Apply(ShrinkRadius))
	assert.InDelta(t, 0.95, pr.ShapeAt(0).Radius(), 1e-12)
	assert.Equal(t, generation, pr.RayCacheGeneration(), "shape edits keep cached rays")

	// Blend steps are ignored until the shape blends
	require.NoError(t, e.Apply(IncreaseBlend))
	assert.Equal(t, geometry.OperationDefault, pr.ShapeAt(0).Operation)

	require.NoError(t, e.Apply(ToggleOperation))
	assert.Equal(t, geometry.OperationBlend, pr.ShapeAt(0).Operation)
	assert.Equal(t, 0.5, pr.ShapeAt(0).BlendStrength)

	for i := 0; i < 20; i++ {
		require.NoError(t, e.Apply(IncreaseBlend))
	}
	assert.Equal(t, 1.0, pr.ShapeAt(0).BlendStrength)
	for i := 0; i < 40; i++ {
		require.NoError(t, e.Apply(DecreaseBlend))
	}
	assert.InDelta(t, 0.05, pr.ShapeAt(0).BlendStrength, 1e-12)

	require.NoError(t, e.Apply(ToggleOperation))
	assert.Equal(t, geometry.OperationDefault, pr.ShapeAt(0).Operation)
}

func TestEditor_ShrinkStopsAtZero(t *testing.T) {
	e, pr := newEditor(t, scene.NewDefaultScene())
	pr.ShapeAt(0).SetRadius(0.01)
	require.NoError(t, e.Apply(ShrinkRadius))
	assert.Equal(t, 0.0, pr.ShapeAt(0).Radius())
	assert.NoError(t, pr.Scene().Validate())
}

func TestEditor_Selection(t *testing.T) {
	e, pr := newEditor(t, scene.NewBlendScene())
	n := len(pr.Shapes())
	require.Greater(t, n, 1)

	assert.Equal(t, 0, e.Selected())
	require.NoError(t, e.Apply(PreviousShape))
	assert.Equal(t, n-1, e.Selected())
	require.NoError(t, e.Apply(NextShape))
	assert.Equal(t, 0, e.Selected())

	// Edits only touch the selected shape
	require.NoError(t, e.Apply(NextShape))
	radii := make([]float64, n)
	for i, s := range pr.Shapes() {
		radii[i] = s.Radius()
	}
	require.NoError(t, e.Apply(GrowRadius))
	for i, s := range pr.Shapes() {
		if i == 1 {
			assert.InDelta(t, radii[i]+0.05, s.Radius(), 1e-12)
		} else {
			assert.Equal(t, radii[i], s.Radius())
		}
	}
}

func TestEditor_EmptyScene(t *testing.T) {
	empty := scene.New("empty", scene.DefaultSettings(), geometry.DefaultCameraConfig())
	e, _ := newEditor(t, empty)

	assert.Equal(t, -1, e.Selected())
	for _, action := range []Action{NextShape, GrowRadius, ToggleOperation, DecreaseBlend} {
		assert.NoError(t, e.Apply(action))
	}
	assert.Equal(t, -1, e.Selected())
	assert.Contains(t, e.Status(), "no shapes")
}

func TestEditor_ReplaceClampsSelection(t *testing.T) {
	e, pr := newEditor(t, scene.NewBlendScene())
	require.NoError(t, e.Apply(PreviousShape))

	require.NoError(t, e.Replace(scene.NewDefaultScene()))
	assert.Equal(t, 0, e.Selected())
	assert.Len(t, pr.Shapes(), 1)

	invalid := scene.NewDefaultScene()
	invalid.Shapes[0].HalfExtents = core.Splat(-1)
	assert.Error(t, e.Replace(invalid))
	assert.Equal(t, 1.0, pr.ShapeAt(0).Radius())
}

func TestEditor_Status(t *testing.T) {
	e, pr := newEditor(t, scene.NewDefaultScene())
	_, err := pr.Update()
	require.NoError(t, err)

	assert.Equal(t, `samples 1/2  shape 1/1 "sphere" r=1.00 default`, e.Status())
	require.NoError(t, e.Apply(ToggleOperation))
	assert.Equal(t, `samples 0/2  shape 1/1 "sphere" r=1.00 blend k=0.50`, e.Status())
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "toggle operation", ToggleOperation.String())
	assert.Equal(t, "Action(99)", Action(99).String())
}

func assertVecNear(t *testing.T, expected, actual core.Vec3) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, 1e-9)
	assert.InDelta(t, expected.Y, actual.Y, 1e-9)
	assert.InDelta(t, expected.Z, actual.Z, 1e-9)
}
