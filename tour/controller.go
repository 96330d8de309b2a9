package tour

// State is a snapshot of the controller.
type State struct {
	Active    bool
	Archetype string
	Index     int
}

// Controller walks through one archetype's stops. The zero state is
// Inactive. Navigation never fails loudly: invalid requests leave the state
// untouched and report false.
type Controller struct {
	catalogue *Catalogue
	active    bool
	archetype string
	index     int
}

// NewController creates an inactive controller over the catalogue.
func NewController(c *Catalogue) *Controller {
	return &Controller{catalogue: c}
}

// Start begins the tour of archetype at stop 0. It requires a non-empty
// stop list.
func (c *Controller) Start(archetype string) bool {
	if c.catalogue.StopCount(archetype) == 0 {
		return false
	}
	c.active = true
	c.archetype = archetype
	c.index = 0
	return true
}

// GoTo jumps to stop i of the running tour.
func (c *Controller) GoTo(i int) bool {
	if !c.active || i < 0 || i >= c.count() {
		return false
	}
	c.index = i
	return true
}

// Next advances one stop, wrapping from the last stop back to the first.
func (c *Controller) Next() bool {
	if !c.active {
		return false
	}
	c.index = (c.index + 1) % c.count()
	return true
}

// Prev steps back one stop. At stop 0 it does nothing.
func (c *Controller) Prev() bool {
	if !c.active || c.index == 0 {
		return false
	}
	c.index--
	return true
}

// Cancel ends the tour.
func (c *Controller) Cancel() {
	c.active = false
	c.archetype = ""
	c.index = 0
}

// Active reports whether a tour is running.
func (c *Controller) Active() bool {
	return c.active
}

// State returns the current state.
func (c *Controller) State() State {
	return State{Active: c.active, Archetype: c.archetype, Index: c.index}
}

// Current returns the stop the tour is at.
func (c *Controller) Current() (Stop, bool) {
	if !c.active {
		return Stop{}, false
	}
	return c.catalogue.Stop(c.archetype, c.index)
}

// StopCount is the length of the running tour, zero when inactive.
func (c *Controller) StopCount() int {
	if !c.active {
		return 0
	}
	return c.count()
}

func (c *Controller) count() int {
	return c.catalogue.StopCount(c.archetype)
}
