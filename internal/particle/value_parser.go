package particle

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/pkg/utils"
)

// Keyframe represents a single keyframe in an animation curve.
// Used for animating particle attributes over normalized age.
type Keyframe struct {
	Time  float64 // Normalized time (0-1)
	Value float64 // Value at this keyframe
}

// Interpolation keywords accepted in keyframe strings.
var interpolationKeywords = []string{"Linear", "EaseIn", "EaseOut", "FastInOutWeak"}

// ParseValue parses a scalar value string from an effect definition.
// Supports multiple formats:
//   - Fixed value: "1500" → min=1500, max=1500, keyframes=nil
//   - Range: "[0.7 0.9]" → min=0.7, max=0.9, keyframes=nil
//   - Keyframes: "0,2 0.5,2 1,21" → keyframes=[{0,2} {0.5,2} {1,21}]
//   - Interpolation: "EaseIn 0,0 1,1" → keyframes with interpolation="EaseIn"
//
// Returns:
//   - min, max: Range values (if not keyframes)
//   - keyframes: Parsed keyframe array (if keyframes format), sorted by time
//   - interpolation: Interpolation mode ("Linear", "EaseIn", etc.)
//   - err: non-nil when the string matches none of the formats
func ParseValue(s string) (min, max float64, keyframes []Keyframe, interpolation string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil, "", fmt.Errorf("empty value")
	}

	// Check for range format: "[min max]" or "[value]"
	if strings.HasPrefix(s, "[") {
		min, max, err = ParseRange(s)
		return min, max, nil, "", err
	}

	// Check for interpolation keywords
	for _, keyword := range interpolationKeywords {
		if strings.Contains(s, keyword) {
			interpolation = keyword
			s = strings.TrimSpace(strings.ReplaceAll(s, keyword, ""))
			break
		}
	}

	// Check for keyframes format: contains comma or has interpolation keyword
	if strings.Contains(s, ",") || interpolation != "" {
		keyframes, err = parseKeyframes(s)
		if err != nil {
			return 0, 0, nil, "", err
		}
		return 0, 0, keyframes, interpolation, nil
	}

	// Fixed value format
	value, err := ParseFloat(s)
	if err != nil {
		return 0, 0, nil, "", err
	}
	return value, value, nil, "", nil
}

func parseKeyframes(s string) ([]Keyframe, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("keyframes without points")
	}
	keyframes := make([]Keyframe, 0, len(parts))
	for _, part := range parts {
		pair := strings.Split(part, ",")
		if len(pair) != 2 {
			return nil, fmt.Errorf("invalid keyframe %q, want time,value", part)
		}
		t, err := ParseFloat(pair[0])
		if err != nil {
			return nil, fmt.Errorf("invalid keyframe time %q: %w", pair[0], err)
		}
		v, err := ParseFloat(pair[1])
		if err != nil {
			return nil, fmt.Errorf("invalid keyframe value %q: %w", pair[1], err)
		}
		if n := len(keyframes); n > 0 && t < keyframes[n-1].Time {
			return nil, fmt.Errorf("keyframe times must be ascending: %v after %v", t, keyframes[n-1].Time)
		}
		keyframes = append(keyframes, Keyframe{Time: t, Value: v})
	}
	return keyframes, nil
}

// ParseFloat parses a single finite number.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("number %q is not finite", s)
	}
	return v, nil
}

// ParseInt parses an integer; "3.0" style values are accepted when integral.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	v, err := ParseFloat(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("value %q is not an integer", s)
	}
	return int(v), nil
}

// ParseRange parses "[min max]", "[value]" or a bare number. min and max are
// swapped when given in descending order.
func ParseRange(s string) (min, max float64, err error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		v, err := ParseFloat(s)
		return v, v, err
	}
	if !strings.HasSuffix(s, "]") {
		return 0, 0, fmt.Errorf("unterminated range %q", s)
	}
	parts := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
	switch len(parts) {
	case 1:
		v, err := ParseFloat(parts[0])
		return v, v, err
	case 2:
		if min, err = ParseFloat(parts[0]); err != nil {
			return 0, 0, err
		}
		if max, err = ParseFloat(parts[1]); err != nil {
			return 0, 0, err
		}
		if min > max {
			min, max = max, min
		}
		return min, max, nil
	default:
		return 0, 0, fmt.Errorf("range %q needs one or two numbers", s)
	}
}

// ParseVector parses three whitespace separated numbers.
func ParseVector(s string) (mgl64.Vec3, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("vector %q needs three numbers", s)
	}
	var v mgl64.Vec3
	for i, p := range parts {
		f, err := ParseFloat(p)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

// ParseColor parses "r g b" or "r g b a" with 0-255 channels into 0-1 values.
// Alpha defaults to 1.
func ParseColor(s string) (mgl64.Vec4, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 && len(parts) != 4 {
		return mgl64.Vec4{}, fmt.Errorf("color %q needs three or four channels", s)
	}
	c := mgl64.Vec4{0, 0, 0, 1}
	for i, p := range parts {
		f, err := ParseFloat(p)
		if err != nil {
			return mgl64.Vec4{}, err
		}
		c[i] = utils.Clamp(f, 0, 255) / 255
	}
	return c, nil
}

// ParseBool accepts 1/0, true/false, yes/no (case-insensitive).
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// EvaluateKeyframes calculates the interpolated value at time t (0-1)
// using the provided keyframes and interpolation mode.
//
// Parameters:
//   - keyframes: Array of keyframes (must be sorted by Time)
//   - t: Normalized time (0-1)
//   - interpolation: Interpolation mode ("Linear", "EaseIn", etc.)
//
// Returns the interpolated value at time t.
func EvaluateKeyframes(keyframes []Keyframe, t float64, interpolation string) float64 {
	if len(keyframes) == 0 {
		return 0
	}
	if len(keyframes) == 1 {
		return keyframes[0].Value
	}

	t = utils.Clamp01(t)

	if t < keyframes[0].Time {
		return keyframes[0].Value
	}

	// Find the keyframe interval containing t
	for i := 0; i < len(keyframes)-1; i++ {
		k0 := keyframes[i]
		k1 := keyframes[i+1]

		if t >= k0.Time && t <= k1.Time {
			duration := k1.Time - k0.Time
			if duration <= 0 {
				return k0.Value
			}
			ratio := (t - k0.Time) / duration

			switch interpolation {
			case "EaseIn":
				ratio = utils.EaseInQuad(ratio)
			case "EaseOut":
				ratio = utils.EaseOutQuad(ratio)
			case "FastInOutWeak":
				ratio = utils.SimpleSpline(ratio)
			}
			return utils.Lerp(k0.Value, k1.Value, ratio)
		}
	}

	// If t is beyond the last keyframe, return the last value
	return keyframes[len(keyframes)-1].Value
}
