package cache

// Counter tracks external requests against a fixed budget. The only way to
// change the count is Increment.
type Counter struct {
	made   int
	budget int
}

// NewCounter starts a counter at made. Negative values are clamped to zero.
func NewCounter(made, budget int) *Counter {
	return &Counter{made: max(made, 0), budget: max(budget, 0)}
}

// Increment records one external request.
func (c *Counter) Increment() {
	c.made++
}

// Made returns the number of requests recorded so far, across runs.
func (c *Counter) Made() int {
	return c.made
}

// Budget returns the configured ceiling.
func (c *Counter) Budget() int {
	return c.budget
}

// Remaining returns how many requests may still be made.
func (c *Counter) Remaining() int {
	return max(c.budget-c.made, 0)
}

// Allows reports whether n more requests fit in the budget.
func (c *Counter) Allows(n int) bool {
	return c.made+n <= c.budget
}
