package apdu

import (
	"encoding/hex"
	"fmt"

	"github.com/opencard/scardcore/internal/corelog"
)

// Transmitter abstracts the physical reader channel.
// send is the fully-framed wire command. recv is caller-owned and
// sized to the maximum this exchange could return (response body +
// the 2 trailing status bytes); Transmit must write at least 2 bytes
// (SW1, SW2) into recv and return how many bytes it wrote.
type Transmitter interface {
	Transmit(send, recv []byte) (n int, err error)
}

// transceiveT0 builds the wire frame for an already-validated command,
// transmits it, and splits the reply into status word and body. body
// is truncated to len(resp); the return value is the number of body
// bytes copied into resp. The send buffer is zeroed before returning,
// on every path, since it may carry secret command data.
func transceiveT0(tr Transmitter, cmd *CommandAPDU, kase Case, resp []byte, debug int) (sw1, sw2 byte, n int, err error) {
	if tr == nil {
		return 0, 0, 0, newErr("apdu.transceiveT0", NotSupported, fmt.Errorf("no transmitter"))
	}

	send, err := cmd.bytes(kase)
	if err != nil {
		return 0, 0, 0, newErr("apdu.transceiveT0", InvalidArguments, err)
	}
	defer zero(send)

	if debug >= 5 {
		corelog.Logger().Debugf("apdu: wire out:\n%s", hex.Dump(send))
	}

	// Room for the largest short-APDU body even when resp is smaller, so
	// an over-long reply is truncated below without losing SW1/SW2.
	recvCap := len(resp)
	if recvCap < MaxShortLe {
		recvCap = MaxShortLe
	}
	recvBuf := make([]byte, recvCap+2)
	recvLen, err := tr.Transmit(send, recvBuf)
	if err != nil {
		return 0, 0, 0, newErr("apdu.transceiveT0", Transport, err)
	}
	if recvLen < 2 {
		return 0, 0, 0, newErr("apdu.transceiveT0", Transport, fmt.Errorf("short reply: %d bytes", recvLen))
	}

	sw1 = recvBuf[recvLen-2]
	sw2 = recvBuf[recvLen-1]
	body := recvBuf[:recvLen-2]

	n = len(body)
	if n > len(resp) {
		n = len(resp)
	}
	if n > 0 {
		copy(resp, body[:n])
	}

	if debug >= 5 {
		corelog.Logger().Debugf("apdu: wire in (SW=%02X%02X):\n%s", sw1, sw2, hex.Dump(recvBuf[:recvLen]))
	}

	return sw1, sw2, n, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
