// Package sign writes rendered frames to the LED sign over a serial line.
package sign

import (
	"fmt"
	"io"

	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const DefaultBaudRate = 300

type Port struct {
	Device string

	writer io.WriteCloser
}

// Open opens device at baudRate with 8 data bits, no parity and one stop bit.
func Open(device string, baudRate int) (*Port, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}

	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open sign %s: %w", device, err)
	}

	log.Info().Str("device", device).Int("baud", baudRate).Msg("Opened sign")

	return NewPort(device, port), nil
}

func NewPort(device string, writer io.WriteCloser) *Port {
	return &Port{
		Device: device,
		writer: writer,
	}
}

// WriteFrame sends the markup side of a complete board frame.
func (p *Port) WriteFrame(frame ctdf.FormattedLine) error {
	if _, err := io.WriteString(p.writer, frame.Markup); err != nil {
		return fmt.Errorf("write sign %s: %w", p.Device, err)
	}

	return nil
}

func (p *Port) Close() error {
	return p.writer.Close()
}
