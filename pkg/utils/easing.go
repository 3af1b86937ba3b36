package utils

import "math"

// Easing / Remap Functions (缓动与重映射函数)
//
// 粒子算子大量使用"把一个区间映射到另一个区间"的操作（年龄 -> 淡入系数、距离 -> 半径等）。
// 所有缓动函数接受进度值 t ∈ [0, 1]，返回缓动后的值 ∈ [0, 1]。

// EaseLinear 线性缓动（无缓动）
func EaseLinear(t float64) float64 {
	return t
}

// SimpleSpline 三次 Hermite 缓入缓出
// 公式：f(t) = 3t² - 2t³
// 在 t=0 和 t=1 处导数为 0，用于 "ease in and out" 选项
func SimpleSpline(t float64) float64 {
	t2 := t * t
	return 3*t2 - 2*t2*t
}

// EaseInQuad 二次方缓入
func EaseInQuad(t float64) float64 {
	return t * t
}

// EaseOutQuad 二次方缓出
func EaseOutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// Bias 偏置曲线
// bias=0.5 时为线性；bias<0.5 压低曲线，bias>0.5 抬高曲线
// 公式：f(x) = x^(log(bias)/log(0.5))
func Bias(x, bias float64) float64 {
	if bias <= 0 {
		return 0
	}
	if bias == 0.5 {
		return x
	}
	if x <= 0 {
		return 0
	}
	return math.Pow(x, math.Log(bias)/math.Log(0.5))
}

// Gain 增益曲线（两段对称的 Bias）
func Gain(x, gain float64) float64 {
	if x < 0.5 {
		return 0.5 * Bias(2*x, 1-gain)
	}
	return 1 - 0.5*Bias(2-2*x, 1-gain)
}

// Clamp 将 v 限制在 [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 将 v 限制在 [0, 1]
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp 线性插值
// t=0 返回 a，t=1 返回 b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// RemapVal 将 v 从 [a, b] 线性映射到 [c, d]（不截断）
// 输入区间退化（a == b）时返回 d，与"已完成插值"的语义一致
func RemapVal(v, a, b, c, d float64) float64 {
	if a == b {
		if v >= b {
			return d
		}
		return c
	}
	return c + (d-c)*(v-a)/(b-a)
}

// RemapValClamped 将 v 从 [a, b] 映射到 [c, d]，进度被截断在 [0, 1]
func RemapValClamped(v, a, b, c, d float64) float64 {
	if a == b {
		if v >= b {
			return d
		}
		return c
	}
	t := Clamp01((v - a) / (b - a))
	return c + (d-c)*t
}

// SimpleSplineRemapValClamped 与 RemapValClamped 相同，但进度经过 SimpleSpline 缓动
func SimpleSplineRemapValClamped(v, a, b, c, d float64) float64 {
	if a == b {
		if v >= b {
			return d
		}
		return c
	}
	t := SimpleSpline(Clamp01((v - a) / (b - a)))
	return c + (d-c)*t
}

// ExponentialDecay 以 decayTo 每 decayTime 秒的比例衰减，返回经过 dt 后的保留系数
// 公式：decayTo^(dt/decayTime)
func ExponentialDecay(decayTo, decayTime, dt float64) float64 {
	if decayTime <= 0 {
		return 1
	}
	if decayTo <= 0 {
		return 0
	}
	return math.Exp(math.Log(decayTo) / decayTime * dt)
}
