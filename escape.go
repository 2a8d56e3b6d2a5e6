package mandel

// Escape iterates z ← z² + c from z = 0 and returns the iteration at which
// |z| first exceeds bound, or maxIter if it never does within maxIter steps.
// Escaping on the last allowed step and never escaping both yield maxIter.
func Escape(c Complex, maxIter uint32, bound float64) uint32 {
	var z Complex
	var i uint32
	for z.Abs() <= bound && i < maxIter {
		z = z.Square().Add(c)
		i++
	}
	return i
}
