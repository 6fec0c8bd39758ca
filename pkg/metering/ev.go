package metering

import(
	"fmt"
	"math"
)

type rat64 [2]int64

func (r rat64)Float() float64 { return float64(r[0]) / float64(r[1]) }

// An ExposureValue details how a photograph was exposed, which lets us turn
// its pixel values back into (relative) scene illuminance. Frames shot at
// different settings then meter on one scale.
type ExposureValue struct {
	ISO                        int64
	FNumber                    rat64  // f/5.6 is {56, 10}
	ShutterSpeed               rat64  // 1/500, 1/1000, etc.
	EV                         float64 // https://en.wikipedia.org/wiki/Exposure_value, at the given ISO

	// How many lux generate a channel value of 0xFFFF
	IlluminanceAtMaxExposure   float64
}

// Known reports whether the EXIF data was found and made sense.
func (ev ExposureValue)Known() bool { return ev.IlluminanceAtMaxExposure > 0 }

func (ev ExposureValue)String() string {
	if !ev.Known() {
		return "EV ??"
	}
	s := fmt.Sprintf("f/%.1f", ev.FNumber.Float())
	if ev.ShutterSpeed[1] != 1 {
		s += fmt.Sprintf(", %d/%4d", ev.ShutterSpeed[0], ev.ShutterSpeed[1])
	} else {
		s += fmt.Sprintf(", %d", ev.ShutterSpeed[0])
	}
	s += fmt.Sprintf(", ISO%d", ev.ISO)
	return s + fmt.Sprintf(", EV %5.2f (%6.0f lux)", ev.EV, ev.IlluminanceAtMaxExposure)
}

// Validate computes EV and the illuminance from the aperture, shutter and ISO.
func (ev *ExposureValue)Validate() error {
	if ev.ISO <= 0 || ev.FNumber[0] <= 0 || ev.FNumber[1] <= 0 || ev.ShutterSpeed[0] <= 0 || ev.ShutterSpeed[1] <= 0 {
		return fmt.Errorf("exposure info incomplete: %+v", *ev)
	}

	n := ev.FNumber.Float()
	ev.EV = math.Log2(n*n/ev.ShutterSpeed.Float()) - math.Log2(float64(ev.ISO)/100.0)
	if ev.EV < -6 || ev.EV > 24 {
		return fmt.Errorf("exposure info looks suspicious, EV=%.2f: %v", ev.EV, ev)
	}

	// EV 10 at ISO100 is 2560 lux; every stop doubles it
	ev.IlluminanceAtMaxExposure = 2.5 * math.Exp2(ev.EV)
	return nil
}

// Scale is what to multiply linear pixel values by so that refLux maps to 1.0.
// Without EXIF data we have nothing to go on, so it is 1.
func (ev ExposureValue)Scale(refLux float64) float64 {
	if !ev.Known() || refLux <= 0 {
		return 1.0
	}
	return ev.IlluminanceAtMaxExposure / refLux
}
