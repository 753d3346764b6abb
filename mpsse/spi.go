package mpsse

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/spi"
)

// spiEdges maps mode to the idle clock level and the write/read edge flags.
//
//	Mode | CPOL | CPHA | idle | out  | in
//	0    | 0    | 0    | low  | fall | rise
//	1    | 0    | 1    | low  | rise | fall
//	2    | 1    | 0    | high | rise | fall
//	3    | 1    | 1    | high | fall | rise
func spiEdges(m spi.Mode) (idle bool, ew, er byte, err error) {
	switch m & 3 {
	case spi.Mode0:
		return false, dataOutFall, 0, nil
	case spi.Mode1:
		return false, 0, dataInFall, nil
	case spi.Mode2:
		return true, 0, dataInFall, nil
	case spi.Mode3:
		return true, dataOutFall, 0, nil
	}
	return false, 0, 0, errors.New("mpsse: unknown spi mode")
}

// SPIWrite clocks w out with CS asserted.
func (d *Driver) SPIWrite(w []byte) error {
	_, err := d.spiTx(w, 0)
	return err
}

// SPIRead clocks n bytes in with CS asserted.
func (d *Driver) SPIRead(n int) ([]byte, error) {
	return d.spiTx(nil, n)
}

// SPIReadWrite clocks w out while reading len(w) bytes.
func (d *Driver) SPIReadWrite(w []byte) ([]byte, error) {
	return d.spiTx(w, len(w))
}

// spiTx queues CS low, one byte shift command and CS high. The command is
// write-only when n is 0, read-only when w is empty, full duplex otherwise.
func (d *Driver) spiTx(w []byte, n int) ([]byte, error) {
	if d.e == nil {
		return nil, ErrNotConnected
	}
	l := max(len(w), n)
	if l == 0 {
		return nil, nil
	}
	if l > maxShiftN {
		return nil, fmt.Errorf("mpsse: spi transfer of %d bytes; max %d", l, maxShiftN)
	}
	var op byte
	if len(w) != 0 {
		op |= dataOut | d.ew
	}
	if n != 0 {
		op |= dataIn | d.er
	}
	if d.spiMode&spi.LSBFirst != 0 {
		op |= dataLSBF
	}

	defer d.e.acquire()()
	if err := d.e.drain(); err != nil {
		return nil, err
	}
	d.q.Reset()
	d.pins.low.out(pinCS, false)
	d.pins.setLow(&d.q)
	d.q.shiftBytes(op, l, w)
	d.pins.low.out(pinCS, true)
	d.pins.setLow(&d.q)
	if err := d.e.Flush(&d.q, n != 0); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	r, err := d.e.ReadReply(n)
	if err != nil {
		return nil, fmt.Errorf("mpsse: spi: %w", err)
	}
	return r, nil
}
