package metering

import(
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/abworrall/auto-exposure/pkg/emath"
)

// A Sequence is a run of frames, metered one after the other through a single
// exposure session, as if they were consecutive frames of a render.
type Sequence struct {
	Config
	Frames []Frame
	Mask   *emath.FloatGrid // nil meters every pixel fully
}

func NewSequence() Sequence {
	return Sequence{Config: NewConfig()}
}

func (seq Sequence)String() string {
	str := fmt.Sprintf("Sequence (%d frames) [\n", len(seq.Frames))
	for _, f := range seq.Frames {
		str += fmt.Sprintf("  %s\n", f)
	}
	return str + "]\n"
}

func (seq *Sequence)AddFrame(f Frame) {
	seq.Frames = append(seq.Frames, f)
}

// Finalize validates the config, loads the mask, orders the frames and
// develops the LDR ones. Call it after all loading and overrides.
func (seq *Sequence)Finalize() error {
	if err := seq.Config.Finalize(); err != nil {
		return err
	}
	if len(seq.Frames) == 0 {
		return ErrNoFrames
	}

	if seq.MaskFile != "" && seq.Mask == nil {
		mask, err := LoadMask(seq.MaskFile)
		if err != nil {
			return err
		}
		seq.Mask = mask
		log.Debug().Str("file", seq.MaskFile).Str("mask", mask.Stats()).Msg("loaded mask")
	}

	sortFrames(seq.Frames)
	for i := range seq.Frames {
		seq.Frames[i].Develop(seq.ReferenceLux, seq.MaxWidth)

		mean, max := seq.Frames[i].LuminanceStats()
		log.Debug().Str("file", seq.Frames[i].Filename()).Float64("mean_lum", mean).Float64("max_lum", max).Msg("developed")
	}
	return nil
}
