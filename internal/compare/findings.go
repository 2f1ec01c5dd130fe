package compare

import "fmt"

// InstanceID addresses one instance across both snapshots. Equality is
// structural; every Finding is labeled with the InstanceID it concerns.
type InstanceID struct {
	Model string `json:"model"`
	PK    int64  `json:"pk"`
}

func (id InstanceID) String() string {
	return fmt.Sprintf("%s:%d", id.Model, id.PK)
}

// Finding is one reported semantic difference between two corresponding
// instances. Findings are immutable; an empty sequence means no detected
// difference.
type Finding struct {
	On     InstanceID `json:"on"`
	Kind   string     `json:"kind"`
	Reason string     `json:"reason"`
}
