package apdu

import "fmt"

// Validate checks cmd against the case-specific preconditions of
// ISO/IEC 7816-3 and returns the APDU's case. It is pure: it never
// mutates cmd or performs I/O. resplen is the capacity of the caller's
// response buffer (0 if none is supplied yet).
//
// A Go slice always carries its own length, so there is no separate
// caller-supplied Lc that could disagree with len(cmd.Data) the way
// OpenSC's sc_check_apdu has to guard against; that half of its check
// is therefore not reachable here and is omitted (see DESIGN.md).
//
// sc_format_apdu has the caller declare the case up front and then
// checks the declared case against the populated fields; this instead
// infers the case from cmd.Data/cmd.Ne, so there is no declared-case
// field to hold a "this was meant to be case 2 short but Le=0" intent
// separately from a bare case 1 command. The two collapse onto the
// same (no data, Ne==0) request and Validate resolves it as Case1 —
// see DESIGN.md.
func Validate(cmd *CommandAPDU, resplen int) (Case, error) {
	const op = "apdu.Validate"

	if len(cmd.Data) > MaxShortLc {
		return 0, newErr(op, InvalidArguments, fmt.Errorf("Lc %d exceeds maximum %d", len(cmd.Data), MaxShortLc))
	}
	if cmd.Ne > MaxShortLe {
		return 0, newErr(op, InvalidArguments, fmt.Errorf("Le %d exceeds maximum %d", cmd.Ne, MaxShortLe))
	}

	hasData := len(cmd.Data) > 0
	hasResp := cmd.Ne > 0

	switch {
	case !hasData && !hasResp:
		return Case1, nil

	case !hasData && hasResp:
		if resplen < cmd.Ne {
			return 0, newErr(op, InvalidArguments, fmt.Errorf("response buffer size %d < Le %d", resplen, cmd.Ne))
		}
		return Case2S, nil

	case hasData && !hasResp:
		return Case3S, nil

	default: // hasData && hasResp
		if resplen < cmd.Ne {
			return 0, newErr(op, InvalidArguments, fmt.Errorf("response buffer size %d < Le %d", resplen, cmd.Ne))
		}
		return Case4S, nil
	}
}

