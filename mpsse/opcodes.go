package mpsse

// MPSSE opcodes [FTDI-AN_108|3 Command Definitions].
const (
	// Shift flags. A short (bit) shift is <op>, <len-1>[, <byte>], a long
	// (byte) shift is <op>, <lenL-1>, <lenH-1>[, <bytes>...].
	dataOutFall byte = 0x01 // write on -VE edge instead of +VE
	dataBit     byte = 0x02 // bit mode instead of byte mode
	dataInFall  byte = 0x04 // read on -VE edge instead of +VE
	dataLSBF    byte = 0x08 // LSB first instead of MSB first
	dataOut     byte = 0x10
	dataIn      byte = 0x20

	// GPIO: <op>, <value>, <direction>. Direction 1 means output.
	gpioSetLow  byte = 0x80 // ADBUS0~7
	gpioSetHigh byte = 0x82 // ACBUS0~7

	loopbackOff byte = 0x85

	// <op>, <valueL>, <valueH>
	clockSetDivisor byte = 0x86

	// Send immediate: return the reply buffer without waiting for more
	// commands or the latency timer.
	sendImmediate byte = 0x87

	clockDiv5Off byte = 0x8A // 60MHz base clock on H-series devices
	clock3Phase  byte = 0x8C // data valid on both edges, needed for I²C
	clock2Phase  byte = 0x8D
	clockNormal  byte = 0x97 // adaptive clocking off

	// Reply marker for an unknown opcode, followed by the opcode itself.
	badCommand byte = 0xFA
)

// Bit modes for SetBitMode [D2XX Programmer's Guide|FT_SetBitMode].
const (
	bitModeReset byte = 0x00
	bitModeMPSSE byte = 0x02
)

// ADBUS pin assignment [FTDI-AN_113|Table 1] / [FTDI-AN_114|Table 1].
//
//	ADBUS0 | SCK / SCL
//	ADBUS1 | DO (MOSI) / SDA out
//	ADBUS2 | DI (MISO) / SDA in
//	ADBUS3 | CS
const (
	pinClock  byte = 1 << 0
	pinDO     byte = 1 << 1
	pinDI     byte = 1 << 2
	pinCS     byte = 1 << 3
	pinSCL         = pinClock
	pinSDA         = pinDO
	pinSDAIn       = pinDI
	maxShiftN      = 65536
)
