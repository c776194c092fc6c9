package rpi

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/mfrc522"

	"github.com/sohamk/tagwatch/internal/tagwatch/types"
)

// Reader reads tag UIDs from an MFRC522 over SPI. Each Poll issues one
// bounded ReadUID so the monitor's cadence is never held hostage by the
// radio.
type Reader struct {
	port    spi.PortCloser
	dev     *mfrc522.Dev
	timeout time.Duration
}

// NewReader opens spiDev (e.g. "SPI0.0") and the named reset/IRQ GPIO pins
// (e.g. "GPIO25", "GPIO24"). pollTimeout bounds a single Poll; it should be
// well under the monitor's poll interval.
func NewReader(spiDev, resetPin, irqPin string, pollTimeout time.Duration) (*Reader, error) {
	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", spiDev, err)
	}

	reset := gpioreg.ByName(resetPin)
	if reset == nil {
		_ = port.Close()
		return nil, fmt.Errorf("reset pin %q not found", resetPin)
	}
	irq := gpioreg.ByName(irqPin)
	if irq == nil {
		_ = port.Close()
		return nil, fmt.Errorf("irq pin %q not found", irqPin)
	}

	dev, err := mfrc522.NewSPI(port, reset, irq)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("mfrc522 init: %w", err)
	}

	return &Reader{port: port, dev: dev, timeout: pollTimeout}, nil
}

func (r *Reader) Poll() (types.CardID, bool, error) {
	uid, err := r.dev.ReadUID(r.timeout)
	if err != nil {
		// The driver reports "no tag in range" as a timeout.
		if strings.Contains(err.Error(), "timeout") {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("mfrc522 read: %w", err)
	}
	return uidToCardID(uid), true, nil
}

func (r *Reader) Close() error {
	if err := r.dev.Halt(); err != nil {
		_ = r.port.Close()
		return fmt.Errorf("mfrc522 halt: %w", err)
	}
	return r.port.Close()
}

// uidToCardID packs a 4/7/10-byte UID into a uint64, big-endian, keeping
// the least significant 8 bytes of longer UIDs.
func uidToCardID(uid []byte) types.CardID {
	var buf [8]byte
	if len(uid) > 8 {
		uid = uid[len(uid)-8:]
	}
	copy(buf[8-len(uid):], uid)
	return types.CardID(binary.BigEndian.Uint64(buf[:]))
}
