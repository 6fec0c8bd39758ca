package exposure

import "fmt"

// State is the persisted output vector. Only [0], the current log2 exposure,
// means anything; the other three are always written as 1.0.
type State [4]float32

func NewState(exposure float32) State { return State{exposure, 1, 1, 1} }

func (s State)Exposure() float32 { return s[0] }
func (s State)String() string    { return fmt.Sprintf("state{ev:%.4f}", s[0]) }

// ExposureReader is what a tone mapper gets: a read-only view of the current
// exposure.
type ExposureReader interface {
	Exposure() float32
}
