package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestDecodeFloat32LE(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1}
	data := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}

	decoded, err := DecodeFloat32LE(data)
	if err != nil {
		t.Fatalf("DecodeFloat32LE failed: %v", err)
	}

	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, samples[i], decoded[i])
		}
	}
}

func TestDecodeFloat32LE_BadLength(t *testing.T) {
	_, err := DecodeFloat32LE([]byte{1, 2, 3})
	if err == nil {
		t.Error("Expected error for length not divisible by 4")
	}
}

func TestEncodeFloat32LE_MatchesDecode(t *testing.T) {
	samples := []float32{0.25, -0.75, 0.125}
	decoded, err := DecodeFloat32LE(EncodeFloat32LE(samples))
	if err != nil {
		t.Fatalf("DecodeFloat32LE failed: %v", err)
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, samples[i], decoded[i])
		}
	}
}

func TestFloat32ToPCM16_Clipping(t *testing.T) {
	pcm := Float32ToPCM16([]float32{2.0, -2.0, 0})
	if len(pcm) != 6 {
		t.Fatalf("Expected 6 bytes, got %d", len(pcm))
	}

	if v := int16(binary.LittleEndian.Uint16(pcm[0:])); v != 32767 {
		t.Errorf("Expected clipped max 32767, got %d", v)
	}
	if v := int16(binary.LittleEndian.Uint16(pcm[2:])); v != -32767 {
		t.Errorf("Expected clipped min -32767, got %d", v)
	}
	if v := int16(binary.LittleEndian.Uint16(pcm[4:])); v != 0 {
		t.Errorf("Expected 0, got %d", v)
	}
}

func TestIntToFloat32(t *testing.T) {
	out := IntToFloat32([]int{0, 16384, -32768}, 16)
	expected := []float32{0, 0.5, -1}
	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, expected[i], out[i])
		}
	}

	out = IntToFloat32([]int{128}, 8)
	if out[0] != 1 {
		t.Errorf("Expected 8-bit 128 to scale to 1, got %f", out[0])
	}
}

func TestResample_Downsample(t *testing.T) {
	// 0.1 seconds at 48kHz
	samples := make([]float32, 4800)
	for i := range samples {
		samples[i] = float32(i%100) / 100
	}

	out := Resample(samples, 48000, 16000)

	// Should have 1600 samples (0.1 seconds at 16kHz)
	if len(out) != 1600 {
		t.Errorf("Expected 1600 samples, got %d", len(out))
	}
}

func TestResample_Upsample(t *testing.T) {
	samples := []float32{0, 1}
	out := Resample(samples, 8000, 16000)

	if len(out) != 4 {
		t.Fatalf("Expected 4 samples, got %d", len(out))
	}
	// Interpolated midpoint between 0 and 1
	if math.Abs(float64(out[1])-0.5) > 1e-6 {
		t.Errorf("Expected interpolated 0.5, got %f", out[1])
	}
}

func TestResample_SameRateCopies(t *testing.T) {
	samples := []float32{0.1, 0.2}
	out := Resample(samples, 16000, 16000)
	out[0] = 0.9
	if samples[0] != 0.1 {
		t.Error("Expected Resample to return a copy when rates match")
	}
}

func TestCalculateRMS(t *testing.T) {
	// Test with known values
	samples := []float32{0.5, -0.5, 0.5, -0.5}
	rms := CalculateRMS(samples)
	if math.Abs(rms-0.5) > 1e-9 {
		t.Errorf("Expected RMS 0.5, got %f", rms)
	}

	// Test with empty samples
	if CalculateRMS(nil) != 0 {
		t.Error("Expected RMS 0 for empty samples")
	}
}

func TestRMSToDBFS(t *testing.T) {
	if db := RMSToDBFS(1); db != 0 {
		t.Errorf("Expected 0 dBFS for full scale, got %f", db)
	}
	if db := RMSToDBFS(0.1); math.Abs(db+20) > 1e-9 {
		t.Errorf("Expected -20 dBFS, got %f", db)
	}
	if !math.IsInf(RMSToDBFS(0), -1) {
		t.Error("Expected -Inf for silence")
	}
}
