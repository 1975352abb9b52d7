package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Input decoding and driver
	IOInfo            Code = 4000
	IOLoadFileError   Code = 4001
	IODecodeError     Code = 4002
	IOVersionMismatch Code = 4003
	IOEncodeError     Code = 4004

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001

	// Lowering
	LowerInfo           Code = 7000
	LowerICE            Code = 7001
	LowerUnreachableArm Code = 7002
	LowerInvalidModule  Code = 7003
	LowerUnknownType    Code = 7004
	LowerUnknownFunc    Code = 7005
)

var (
	codeDescription = map[Code]string{
		UnknownCode:         "Unknown error",
		IOInfo:              "I/O information",
		IOLoadFileError:     "I/O load file error",
		IODecodeError:       "typed program could not be decoded",
		IOVersionMismatch:   "typed program format version mismatch",
		IOEncodeError:       "module could not be written",
		ObsInfo:             "Observability information",
		ObsTimings:          "Pipeline timings",
		LowerInfo:           "Lowering information",
		LowerICE:            "internal compiler error during lowering",
		LowerUnreachableArm: "unreachable match arm",
		LowerInvalidModule:  "lowered module failed validation",
		LowerUnknownType:    "reference to unregistered type",
		LowerUnknownFunc:    "reference to unregistered function",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("LOW%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
