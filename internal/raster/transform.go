package raster

import (
	"github.com/AnyUserName/pngpix/internal/codec"
	"github.com/AnyUserName/pngpix/internal/negotiate"
	"github.com/AnyUserName/pngpix/internal/pixel"
)

// Transform prepares a reader to deliver rows in format dst.
type Transform func(rd *codec.Reader, dst pixel.Format) error

// ConvertColorSpace negotiates a plan against the reader's capabilities and
// requests it.
func ConvertColorSpace(opts ...negotiate.Option) Transform {
	return func(rd *codec.Reader, dst pixel.Format) error {
		plan, err := negotiate.Negotiate(rd.Descriptor(), dst, rd.Capabilities(), opts...)
		if err != nil {
			return err
		}
		return plan.Apply(rd)
	}
}

// RequireColorSpace refuses any conversion.
func RequireColorSpace() Transform {
	return func(rd *codec.Reader, dst pixel.Format) error {
		return negotiate.Require(rd.Descriptor(), dst)
	}
}

// ApplyPlan requests a plan computed earlier, for callers that want to
// record the plan before reading.
func ApplyPlan(plan negotiate.Plan) Transform {
	return func(rd *codec.Reader, _ pixel.Format) error {
		return plan.Apply(rd)
	}
}
