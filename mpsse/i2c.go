package mpsse

import "fmt"

// i2cHold is how many times each START/STOP transition is queued. Repeating a
// GPIO write is the only way to stretch it, each write takes one MPSSE
// instruction cycle [FTDI-AN_113|3.2].
const i2cHold = 4

// i2cStart queues the START condition: SDA falls while SCL is high, then SCL
// falls.
func (d *Driver) i2cStart() {
	d.i2cLines(true, true)
	d.i2cLines(true, false)
	d.i2cLines(false, false)
}

// i2cStop queues the STOP condition, the mirror of i2cStart.
func (d *Driver) i2cStop() {
	d.i2cLines(false, false)
	d.i2cLines(true, false)
	d.i2cLines(true, true)
}

func (d *Driver) i2cLines(scl, sda bool) {
	d.pins.low.out(pinSCL, scl)
	d.pins.low.out(pinSDA, sda)
	for i := 0; i < i2cHold; i++ {
		d.pins.setLow(&d.q)
	}
}

// i2cWriteByte queues one byte out MSB first followed by the ACK bit
// sample. The adapter returns one byte per sampled ACK, bit 0 set on NAK.
func (d *Driver) i2cWriteByte(b byte) {
	d.q.shiftBits(dataOut|dataOutFall, 8, b)
	d.pins.low.in(pinSDA)
	d.pins.setLow(&d.q)
	d.q.shiftBits(dataIn, 1)
	d.pins.low.out(pinSDA, true)
	d.pins.setLow(&d.q)
}

// i2cReadByte queues one byte in followed by the ACK (or NAK for the last
// byte) driven by the master.
func (d *Driver) i2cReadByte(last bool) {
	d.pins.low.in(pinSDA)
	d.pins.setLow(&d.q)
	d.q.shiftBits(dataIn, 8)
	d.pins.low.out(pinSDA, false)
	d.pins.setLow(&d.q)
	ack := byte(0x00)
	if last {
		ack = 0xFF
	}
	d.q.shiftBits(dataOut|dataOutFall, 1, ack)
	d.pins.low.out(pinSDA, true)
	d.pins.setLow(&d.q)
}

// I2CWrite writes w to the 7-bit address addr. Without stop, the bus is left
// claimed so the next START becomes a repeated start.
func (d *Driver) I2CWrite(addr uint16, w []byte, stop bool) error {
	if d.e == nil {
		return ErrNotConnected
	}
	defer d.e.acquire()()
	if err := d.e.drain(); err != nil {
		return err
	}
	d.q.Reset()
	d.i2cStart()
	d.i2cWriteByte(byte(addr << 1))
	for _, b := range w {
		d.i2cWriteByte(b)
	}
	if stop {
		d.i2cStop()
	}
	if err := d.e.Flush(&d.q, true); err != nil {
		return err
	}
	acks, err := d.e.ReadReply(1 + len(w))
	if err != nil {
		return fmt.Errorf("mpsse: i2c write %#02x: %w", addr, err)
	}
	for i, a := range acks {
		if a&1 != 0 {
			return &NAKError{Addr: addr, Index: i}
		}
	}
	return nil
}

// I2CRead reads n bytes from the 7-bit address addr and ends with STOP.
//
// The adapter returns the shifted-in bytes last byte first; they are put
// back in bus order before returning.
func (d *Driver) I2CRead(addr uint16, n int) ([]byte, error) {
	if d.e == nil {
		return nil, ErrNotConnected
	}
	if n <= 0 {
		return nil, fmt.Errorf("mpsse: invalid read length %d", n)
	}
	defer d.e.acquire()()
	if err := d.e.drain(); err != nil {
		return nil, err
	}
	d.q.Reset()
	d.i2cStart()
	d.i2cWriteByte(byte(addr<<1) | 1)
	for i := 0; i < n; i++ {
		d.i2cReadByte(i == n-1)
	}
	d.i2cStop()
	if err := d.e.Flush(&d.q, true); err != nil {
		return nil, err
	}
	r, err := d.e.ReadReply(1 + n)
	if err != nil {
		return nil, fmt.Errorf("mpsse: i2c read %#02x: %w", addr, err)
	}
	if r[0]&1 != 0 {
		return nil, &NAKError{Addr: addr}
	}
	return reverse(r[1:]), nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
