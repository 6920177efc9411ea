package tek

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// MaxArbBytes is the largest arbitrary waveform of the AFG3000 range (131072
// 16 bit points). Some models accept less, e.g. 65536 points on the AFG3021/3022.
const MaxArbBytes = 262144

// DefaultAFGAddress is the generator the tools talk to when none is given
const DefaultAFGAddress = "128.243.74.108"

// AFG is a Tektronix AFG3000 series arbitrary function generator
type AFG struct {
	link Link
}

// NewAFG wraps an open link
func NewAFG(l Link) *AFG {
	return &AFG{link: l}
}

// SwapBytes swaps every pair of bytes in place, converting 16 bit samples
// between little and big endian. Odd length buffers are rejected untouched.
func SwapBytes(buf []byte) error {
	if len(buf)%2 != 0 {
		return fmt.Errorf("%w: %d bytes", ErrOddLength, len(buf))
	}
	for i := 0; i < len(buf); i += 2 {
		buf[i], buf[i+1] = buf[i+1], buf[i]
	}
	return nil
}

// SendArb uploads little endian 16 bit samples to edit memory, swapping them
// to the big endian order the AFG wants (samples itself is not modified).
// For slot 1-4 edit memory is then copied to USER<slot>.
func (a *AFG) SendArb(samples []byte, slot int) error {
	b := append([]byte(nil), samples...)
	if err := SwapBytes(b); err != nil {
		return err
	}
	if err := a.link.SendBlock(":TRACE:DATA EMEMORY,", b); err != nil {
		return fmt.Errorf("error sending waveform data: %w", err)
	}
	if slot < 1 || slot > 4 {
		log.Debugf("Waveform of %v bytes left in edit memory", len(b))
		return nil
	}
	return sendf(a.link, "TRACE:COPY USER%d,EMEM", slot)
}

// Exec sends commands as they are
func (a *AFG) Exec(cmds ...string) error {
	for _, c := range cmds {
		log.Debugf("AFG send: %s", c)
		if err := a.link.Send(c); err != nil {
			return err
		}
	}
	return nil
}

var afgShapes = map[string]string{
	"DC":       "DC",
	"SINE":     "SIN",
	"SQUARE":   "SQU",
	"TRIANGLE": "TRI",
}

// ParseAFGCommand translates the short form "<letter>:<channel>:<argument>" into SCPI:
//
//	E:1:ON      output on/off
//	O:1:0.5     offset in volts
//	V:1:2       amplitude in volts peak-peak (A is a synonym)
//	F:2:10000   frequency in Hz
//	P:1:180     phase in degrees
//	S:1:SINE    shape, one of DC SINE SQUARE TRIANGLE
func ParseAFGCommand(s string) (string, error) {
	f := strings.SplitN(s, ":", 3)
	if len(f) != 3 || len(f[0]) != 1 {
		return "", fmt.Errorf("can not parse AFG command %q", s)
	}
	ch, err := strconv.Atoi(f[1])
	if err != nil {
		return "", fmt.Errorf("bad channel in %q: %w", s, err)
	}
	arg := f[2]

	num := func() (float64, error) {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, fmt.Errorf("bad argument in %q: %w", s, err)
		}
		return v, nil
	}

	switch f[0][0] {
	case 'E':
		return fmt.Sprintf("OUTP%d:STAT %s", ch, arg), nil
	case 'S':
		shape, ok := afgShapes[strings.ToUpper(arg)]
		if !ok {
			return "", fmt.Errorf("unknown shape '%s'", arg)
		}
		return fmt.Sprintf("SOUR%d:FUNC:SHAP %s", ch, shape), nil
	case 'O':
		v, err := num()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("SOUR%d:VOLT:LEV:IMM:OFFS %fV", ch, v), nil
	case 'A', 'V':
		v, err := num()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("SOUR%d:VOLT:LEV:IMM:AMPL %fVPP", ch, v), nil
	case 'F':
		v, err := num()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("SOUR%d:FREQ:FIX %fHz", ch, v), nil
	case 'P':
		v, err := num()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("SOUR%d:PHAS:ADJ %fDEG", ch, v), nil
	}
	return "", fmt.Errorf("unknown command %q", s)
}
