package pricing

// StepIndex returns the first index i where v <= breakpoints[i], or -1 when v
// exceeds every breakpoint. Breakpoints are upper bounds: a value equal to a
// breakpoint selects that breakpoint.
func StepIndex(breakpoints []int, v int) int {
	for i, b := range breakpoints {
		if v <= b {
			return i
		}
	}
	return -1
}
