// Package migration supports moving legacy tube-based code onto the
// component model. It carries a faithful implementation of the legacy
// Tube, adapters that map tube statuses onto lifecycle states in both
// directions, and an issue log that records every lossy or suspicious
// conversion encountered along the way.
package migration
