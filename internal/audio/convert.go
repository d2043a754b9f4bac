package audio

// maxPCM16 is the maximum magnitude of a signed 16-bit sample. Whisper-style
// models expect float inputs normalized by this value.
const maxPCM16 = 32767.0

// SampleToFloat32 converts one PCM-16 sample to a normalized float amplitude
// in [-1.0, 1.0]. 32767 maps to 1.0, 0 to 0.0, and -32768 clamps to -1.0.
func SampleToFloat32(s int16) float32 {
	f := float32(s) / maxPCM16
	if f < -1.0 {
		return -1.0
	}
	if f > 1.0 {
		return 1.0
	}
	return f
}

// SamplesToFloat32 converts a slice of PCM-16 samples to normalized float
// amplitudes. The result is a new slice; the input is not retained.
func SamplesToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = SampleToFloat32(s)
	}
	return out
}
