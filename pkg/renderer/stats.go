package renderer

import (
	"image"
	"time"
)

// RenderStats describes one Update call and the state of the image after it
type RenderStats struct {
	Pass          int  // Sample index completed by this call, 1-based
	MaxSamples    int  // Passes until convergence
	Stride        int  // Pixel index stride used by this pass
	Idle          bool // Already converged; nothing was marched
	Workers       int  // Workers forked for this pass
	PassesRun     int  // Passes run since construction, across resets
	PixelsMarched int
	Hits          int
	Misses        int
	MarchSteps    int // Field evaluations while marching, normals excluded
	RaysGenerated int // Rays computed from the camera this pass
	RaysReused    int // Rays taken from the cache
	Duration      time.Duration

	TotalPixels    int     // Total number of pixels in the buffer
	CoveredPixels  int     // Pixels with at least one sample
	TotalSamples   int     // Samples accumulated since the last reset
	AverageSamples float64 // Average samples per pixel
	MinSamples     int     // Fewest samples taken by any pixel
	MaxSamplesUsed int     // Most samples taken by any pixel
}

// merge folds per-worker counters into s
func (s *RenderStats) merge(other RenderStats) {
	s.PixelsMarched += other.PixelsMarched
	s.Hits += other.Hits
	s.Misses += other.Misses
	s.MarchSteps += other.MarchSteps
	s.RaysGenerated += other.RaysGenerated
	s.RaysReused += other.RaysReused
}

// PixelStats accumulates the shaded bytes of every sample taken by a pixel
type PixelStats struct {
	Sum         [3]int // Per-channel byte sum
	SampleCount int    // Number of samples taken
}

// AddSample adds a new shaded sample
func (ps *PixelStats) AddSample(rgb [3]uint8) {
	ps.Sum[0] += int(rgb[0])
	ps.Sum[1] += int(rgb[1])
	ps.Sum[2] += int(rgb[2])
	ps.SampleCount++
}

// GetColor returns the truncated average of the samples, or black if none
func (ps *PixelStats) GetColor() [3]uint8 {
	if ps.SampleCount == 0 {
		return [3]uint8{}
	}
	n := ps.SampleCount
	return [3]uint8{uint8(ps.Sum[0] / n), uint8(ps.Sum[1] / n), uint8(ps.Sum[2] / n)}
}

// sampleStats fills the coverage fields of stats from the pixel accumulators
func sampleStats(pixels []PixelStats, stats *RenderStats) {
	stats.TotalPixels = len(pixels)
	stats.TotalSamples = 0
	stats.CoveredPixels = 0
	stats.MaxSamplesUsed = 0
	if len(pixels) == 0 {
		stats.MinSamples = 0
		stats.AverageSamples = 0
		return
	}

	stats.MinSamples = pixels[0].SampleCount
	for i := range pixels {
		n := pixels[i].SampleCount
		stats.TotalSamples += n
		stats.MinSamples = min(stats.MinSamples, n)
		stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, n)
		if n > 0 {
			stats.CoveredPixels++
		}
	}
	stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img in [0,1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	count := bounds.Dx() * bounds.Dy()
	if count == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += 0.2126*float64(r)/0xffff + 0.7152*float64(g)/0xffff + 0.0722*float64(b)/0xffff
		}
	}
	return total / float64(count)
}
