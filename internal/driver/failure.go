package driver

import (
	"errors"

	"reef/internal/buildpipeline"
	"reef/internal/diag"
	"reef/internal/mir"
	"reef/internal/source"
)

// FailureDiagnostic turns a unit failure into the error diagnostic that
// reports it. Internal compiler errors point at the construct that broke.
func FailureDiagnostic(err error) diag.Diagnostic {
	if ice, ok := mir.AsICE(err); ok {
		return diag.InternalError(ice.Span, ice.Construct, ice.Msg)
	}

	code := diag.LowerICE
	var se *buildpipeline.StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case buildpipeline.StageDecode:
			code = diag.IODecodeError
		case buildpipeline.StageValidate:
			code = diag.LowerInvalidModule
		case buildpipeline.StageEncode:
			code = diag.IOEncodeError
		}
		err = se.Err
	}
	return diag.NewError(code, source.Span{}, err.Error())
}
