package fleet

// MaxPackages is the cargo capacity of one agent.
const MaxPackages = 15

// maxSlowdown is the share of top speed lost at full capacity.
const maxSlowdown = 0.9

// Cargo counts the packages an agent carries, always within [0, MaxPackages].
type Cargo struct {
	count int
}

// NewCargo returns cargo holding n packages, clamped to capacity.
func NewCargo(n int) Cargo {
	var c Cargo
	c.Add(n)
	return c
}

// Add loads up to n packages and returns how many fit.
func (c *Cargo) Add(n int) int {
	if n <= 0 {
		return 0
	}
	if free := MaxPackages - c.count; n > free {
		n = free
	}
	c.count += n
	return n
}

// Remove unloads up to n packages and returns how many were removed.
func (c *Cargo) Remove(n int) int {
	if n <= 0 {
		return 0
	}
	if n > c.count {
		n = c.count
	}
	c.count -= n
	return n
}

// Count returns the number of packages on board.
func (c Cargo) Count() int { return c.count }

// Full reports whether no more packages fit.
func (c Cargo) Full() bool { return c.count >= MaxPackages }

// Speed is the travel speed of an agent carrying packages: a full load slows
// it to a tenth of maxSpeed.
func Speed(maxSpeed float64, packages int) float64 {
	if packages < 0 {
		packages = 0
	}
	if packages > MaxPackages {
		packages = MaxPackages
	}
	return maxSpeed - maxSpeed*maxSlowdown*float64(packages)/MaxPackages
}
