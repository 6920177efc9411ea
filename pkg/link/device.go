package link

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"github.com/speters/tekvxi/pkg/monitor"
)

// DefaultPort is the raw SCPI socket server port of Tektronix scopes
const DefaultPort = 4000

// DefaultBaud is used for serial links unless the address carries ?baud=
const DefaultBaud = 9600

// ReadTimeout is the timeout used for ordinary queries
const ReadTimeout = 10 * time.Second

// ErrNotConnected is returned by I/O on a closed or never connected Device
var ErrNotConnected = errors.New("link not connected")

type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Device is an instrument link speaking newline terminated SCPI over a
// TCP socket, a serial line or a usbtmc character device
type Device struct {
	conn         io.ReadWriteCloser
	r            *bufio.Reader
	rlock, wlock sync.Mutex

	link      string
	connected bool

	// Port is used when the address names a host without a port
	Port int
	// Baud is used for serial links unless the address carries ?baud=
	Baud int
}

// NewDevice is the factory method to create a new Device
func NewDevice() *Device {
	return &Device{Port: DefaultPort, Baud: DefaultBaud}
}

// Open creates a Device and connects it to addr
func Open(addr string) (*Device, error) {
	o := NewDevice()
	if err := o.Connect(addr); err != nil {
		return nil, err
	}
	return o, nil
}

// Address turns a user supplied address into a connection URL. A bare host
// or host:port becomes socket://, a bare path stays a (serial) path.
func Address(addr string, port int) (*url.URL, error) {
	if strings.Contains(addr, "::") {
		return nil, fmt.Errorf("VISA resource strings are not supported (%q), use usbtmc:///dev/usbtmcN", addr)
	}
	if !strings.Contains(addr, "://") && !strings.HasPrefix(addr, "/") {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, strconv.Itoa(port))
		}
		addr = "socket://" + addr
	}
	return url.Parse(addr)
}

// Connect attaches to the instrument via a tcp socket, a serial device or a usbtmc device
func (o *Device) Connect(link string) error {
	o.rlock.Lock()
	o.wlock.Lock()
	defer o.rlock.Unlock()
	defer o.wlock.Unlock()

	u, err := Address(link, o.Port)
	if err != nil {
		o.connected = false
		return err
	}

	switch u.Scheme {
	case "socket", "tcp":
		c, err := net.DialTimeout("tcp", u.Host, ReadTimeout)
		if err != nil {
			return err
		}
		c.(*net.TCPConn).SetKeepAlive(true)
		c.(*net.TCPConn).SetKeepAlivePeriod(30 * time.Second)
		o.conn = c
	case "usbtmc":
		f, err := os.OpenFile(u.Path, os.O_RDWR, 0)
		if err != nil {
			return err
		}
		o.conn = f
	case "serial", "file", "":
		baud := o.Baud
		if b := u.Query().Get("baud"); b != "" {
			if baud, err = strconv.Atoi(b); err != nil {
				return fmt.Errorf("bad baud rate %q: %w", b, err)
			}
		}
		o.conn, err = serial.OpenPort(&serial.Config{Name: u.Path, Baud: baud, Size: 8, Parity: serial.ParityNone, StopBits: serial.Stop1, ReadTimeout: ReadTimeout})
		if err != nil {
			return err
		}
	default:
		o.connected = false
		return fmt.Errorf("Can not find a valid connection string in \"%v\"", link)
	}

	o.connected = true
	o.link = link
	o.r = bufio.NewReader(o.conn)
	log.Debugf("Connected to %v", u)
	return nil
}

// Reconnect closes and reopens the link with the address of the last Connect
func (o *Device) Reconnect() error {
	o.Close()
	return o.Connect(o.link)
}

// Close closes Device, closing the underlying connection
func (o *Device) Close() error {
	o.rlock.Lock()
	o.wlock.Lock()
	defer o.rlock.Unlock()
	defer o.wlock.Unlock()

	if !o.connected {
		return io.ErrClosedPipe
	}
	o.connected = false
	return o.conn.Close()
}

func (o *Device) Read(b []byte) (int, error) {
	o.rlock.Lock()
	defer o.rlock.Unlock()

	if !o.connected {
		return 0, io.EOF
	}
	n, err := o.r.Read(b)
	log.Debugf("Read b='%# x', n=%v, err=%v", b[0:n], n, err)
	return n, err
}

func (o *Device) Write(b []byte) (int, error) {
	o.wlock.Lock()
	defer o.wlock.Unlock()

	if !o.connected {
		return 0, io.EOF
	}
	n, err := o.conn.Write(b)
	monitor.BytesSent.Add(float64(n))
	if err != nil {
		monitor.LinkErrors.Inc()
	}
	return n, err
}

// Send writes one SCPI command, appending the newline terminator
func (o *Device) Send(cmd string) error {
	if !o.connected {
		return ErrNotConnected
	}
	_, err := o.Write([]byte(cmd + "\n"))
	log.Debugf("Send cmd='%s', err=%v", cmd, err)
	if err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	monitor.CommandsSent.Inc()
	return nil
}

// Query sends cmd and waits up to timeout for a one line answer
func (o *Device) Query(cmd string, timeout time.Duration) (string, error) {
	if err := o.Send(cmd); err != nil {
		return "", err
	}

	o.rlock.Lock()
	defer o.rlock.Unlock()
	o.setDeadline(timeout)
	defer o.setDeadline(0)

	for {
		s, err := o.r.ReadString('\n')
		if err != nil {
			monitor.LinkErrors.Inc()
			return "", fmt.Errorf("reading answer to %q: %w", cmd, err)
		}
		monitor.BytesReceived.Add(float64(len(s)))
		s = strings.TrimRight(s, "\r\n")
		// A stray terminator left behind by a block transfer
		if s == "" {
			continue
		}
		log.Debugf("Query cmd='%s', answer='%s'", cmd, s)
		monitor.Queries.Inc()
		return s, nil
	}
}

// ReadBlock reads one IEEE 488.2 definite length block into buf and returns
// the number of data bytes. A block larger than buf is drained and reported as ErrBlockFormat.
func (o *Device) ReadBlock(buf []byte, timeout time.Duration) (int, error) {
	o.rlock.Lock()
	defer o.rlock.Unlock()
	if !o.connected {
		return 0, ErrNotConnected
	}
	o.setDeadline(timeout)
	defer o.setDeadline(0)

	size, err := ReadBlockHeader(o.r)
	if err != nil {
		monitor.LinkErrors.Inc()
		return 0, err
	}

	n := size
	if n > len(buf) {
		n = len(buf)
	}
	if _, err := io.ReadFull(o.r, buf[:n]); err != nil {
		monitor.LinkErrors.Inc()
		return 0, fmt.Errorf("reading %d byte block: %w", size, err)
	}
	if n < size {
		if _, err := io.CopyN(io.Discard, o.r, int64(size-n)); err != nil {
			monitor.LinkErrors.Inc()
			return n, fmt.Errorf("%w: block of %d bytes exceeds buffer of %d, draining the rest: %w", ErrBlockFormat, size, len(buf), err)
		}
	}
	monitor.BytesReceived.Add(float64(size))

	if o.r.Buffered() > 0 {
		if b, _ := o.r.Peek(1); b[0] == '\n' {
			o.r.ReadByte()
		}
	}
	log.Debugf("ReadBlock size=%v, buf=%v", size, len(buf))

	if n < size {
		return n, fmt.Errorf("%w: block of %d bytes exceeds buffer of %d", ErrBlockFormat, size, len(buf))
	}
	return n, nil
}

// SendBlock writes header immediately followed by data as a definite length block
func (o *Device) SendBlock(header string, data []byte) error {
	if !o.connected {
		return ErrNotConnected
	}
	h, err := EncodeBlockHeader(len(data))
	if err != nil {
		return err
	}
	b := make([]byte, 0, len(header)+len(h)+len(data)+1)
	b = append(b, header...)
	b = append(b, h...)
	b = append(b, data...)
	b = append(b, '\n')

	_, err = o.Write(b)
	log.Debugf("SendBlock header='%s', size=%v, err=%v", header, len(data), err)
	if err != nil {
		return fmt.Errorf("sending %d byte block: %w", len(data), err)
	}
	monitor.CommandsSent.Inc()
	return nil
}

// setDeadline arms a read deadline where the transport supports one; the serial
// transport relies on the ReadTimeout it was opened with.
func (o *Device) setDeadline(timeout time.Duration) {
	d, ok := o.conn.(deadliner)
	if !ok {
		return
	}
	var t time.Time
	if timeout > 0 {
		t = time.Now().Add(timeout)
	}
	if err := d.SetReadDeadline(t); err != nil {
		log.Debugf("SetReadDeadline: %v", err)
	}
}
