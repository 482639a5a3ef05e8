package monitor

import "time"

type Check struct {
	Configured bool `json:"configured"`
	OK         bool `json:"ok"`
}

type BufferCheck struct {
	Check
	Size int `json:"size"`
}

type Status struct {
	PostgreSQL Check       `json:"postgresql"`
	Redis      Check       `json:"redis"`
	Buffer     BufferCheck `json:"buffer"`
	LastCheck  time.Time   `json:"last_check"`
}

// Healthy is false when any configured dependency failed its probe.
func (s Status) Healthy() bool {
	for _, c := range []Check{s.PostgreSQL, s.Redis, s.Buffer.Check} {
		if c.Configured && !c.OK {
			return false
		}
	}
	return true
}
