// Package bus selects between the bit-banged MPSSE driver and the native
// FT4222H transport and exposes one I²C/SPI contract over either.
//
// A Bus is configured once with Settings, opened with Connect and released
// with Disconnect. Every other operation returns ErrNotConnected outside of
// that window.
//
// Bus implements periph.io/x/conn/v3/i2c.Bus so periph device drivers can be
// used on top of it.
package bus
