package apdu

import "fmt"

// Locker is the exclusive-access collaborator the engine acquires
// around a transmission. Implementations must tolerate nested
// Lock/Unlock calls from the same goroutine (the session package's
// reference-counted lock is the intended implementation).
type Locker interface {
	Lock() error
	Unlock() error
}

// Engine drives a single command/response exchange to completion,
// including the 6Cxx (wrong Le) and 61xx (GET RESPONSE) retry protocol
// ISO/IEC 7816-3 defines for T=0, grounded on OpenSC's
// sc_transmit_apdu.
type Engine struct {
	Transmitter Transmitter
	Locker      Locker

	// Debug is the core's 0-5 verbosity scale; at 5 the engine
	// hex-dumps the wire traffic through internal/corelog.
	Debug int
}

// Transmit validates cmd, acquires the engine's lock for the whole
// exchange (including any retry sub-exchanges), and fills resp with
// the response body. It returns the number of response bytes written
// and the final status word.
//
// The retry steps mirror sc_transmit_apdu exactly:
//
//  1. 6Cxx with no body yet received: the card is telling us we asked
//     for the wrong Le. Re-issue the very same command with Le
//     corrected to SW2 and the original response capacity restored.
//  2. 61xx with no body yet received: more data is waiting. If the
//     caller never asked for a response (origResplen == 0) there is
//     nothing to fetch it into, so the engine synthesizes 9000 rather
//     than issuing a GET RESPONSE the caller can't receive into — this
//     mirrors a known rough edge in sc_transmit_apdu itself ("FIXME:
//     should we do this?") rather than inventing new behavior.
//     Otherwise, issue a literal GET RESPONSE (00 C0 00 00 SW2) built
//     directly, bypassing Validate exactly as sc_transceive_t0's own
//     direct call does, and splice its body/status into the caller's
//     result.
//
// Neither step is recursive: at most one 6Cxx retry and one 61xx
// follow-up ever happen, matching sc_transmit_apdu's documented
// limitation that chained 61xx responses are not handled.
func (e *Engine) Transmit(cmd *CommandAPDU, resp []byte) (n int, sw StatusWord, err error) {
	const op = "apdu.Engine.Transmit"

	origResplen := len(resp)

	kase, err := Validate(cmd, origResplen)
	if err != nil {
		return 0, 0, err
	}

	if e.Locker != nil {
		if lerr := e.Locker.Lock(); lerr != nil {
			return 0, 0, newErr(op, Transport, fmt.Errorf("lock: %w", lerr))
		}
		defer e.Locker.Unlock()
	}

	sw1, sw2, n, err := transceiveT0(e.Transmitter, cmd, kase, resp, e.Debug)
	if err != nil {
		return 0, 0, err
	}

	if sw1 == 0x6C && n == 0 {
		cmd.Ne = int(sw2)
		sw1, sw2, n, err = transceiveT0(e.Transmitter, cmd, kase, resp, e.Debug)
		if err != nil {
			return 0, 0, err
		}
	}

	if sw1 == 0x61 && n == 0 {
		if origResplen == 0 {
			return 0, NewStatusWord(0x90, 0x00), nil
		}

		getResp := &CommandAPDU{
			Instruction: Instruction{Raw: InsGetResponse},
			Ne:          int(sw2),
		}
		grResp := make([]byte, sw2)
		grSW1, grSW2, grN, gerr := transceiveT0(e.Transmitter, getResp, Case2S, grResp, e.Debug)
		if gerr != nil {
			return 0, 0, newErr(op, Transport, fmt.Errorf("get response: %w", gerr))
		}

		c := grN
		if c > origResplen {
			c = origResplen
		}
		if c > 0 {
			copy(resp, grResp[:c])
		}
		return c, NewStatusWord(grSW1, grSW2), nil
	}

	return n, NewStatusWord(sw1, sw2), nil
}
