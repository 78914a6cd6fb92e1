package machine

import "time"

// Machine is a top-level code segment (MMM).
type Machine struct {
	MMM       string    `json:"mmm"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is a second-level code segment (GGGG) within a machine.
type Group struct {
	ID        int64     `json:"id"`
	MMM       string    `json:"mmm"`
	GGGG      string    `json:"gggg"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
