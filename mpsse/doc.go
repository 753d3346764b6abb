// Package mpsse drives an FTDI FT232H/FT2232H in MPSSE mode as a bit-banged
// I²C and SPI master.
//
// Every transaction is built into a single command queue and exchanged with the
// adapter in one USB round trip. START/STOP conditions are generated with GPIO
// direction/value writes only, so the pin state of both GPIO groups is cached
// by the driver and rewritten on every transition.
//
// # References:
//
//   - [FTDI-AN_108]: Command Processor for MPSSE and MCU Host Bus Emulation Modes (https://ftdichip.com/wp-content/uploads/2020/08/AN_108_Command_Processor_for_MPSSE_and_MCU_Host_Bus_Emulation_Modes.pdf)
//   - [FTDI-AN_113]: Interfacing FT2232H Hi-Speed Devices To I2C Bus (https://ftdichip.com/wp-content/uploads/2020/08/AN_113_FTDI_Hi_Speed_USB_To_I2C_Example.pdf)
//   - [FTDI-AN_114]: Interfacing FT2232H Hi-Speed Devices To SPI Bus (https://ftdichip.com/wp-content/uploads/2020/08/AN_114_FTDI_Hi_Speed_USB_To_SPI_Example.pdf)
//   - [FTDI-AN_135]: FTDI MPSSE Basics (https://ftdichip.com/wp-content/uploads/2020/08/AN_135_MPSSE_Basics.pdf)
package mpsse
