// Package regflash programs the embedded flash of a target chip through its
// 32-bit register port on I²C.
//
// Every register access is an 8-byte command (a fixed preamble and the
// big-endian register address) followed by a 4-byte little-endian load or
// store. The Flash engine builds erase, program, verify and dump sequences
// on top of it, bracketing each with an MCU halt and a reset.
//
// # References:
//
// FTDI (https://ftdichip.com/document/application-notes/)
//   - [FTDI-AN_108]: Command Processor for MPSSE and MCU Host Bus Emulation Modes (https://ftdichip.com/wp-content/uploads/2020/08/AN_108_Command_Processor_for_MPSSE_and_MCU_Host_Bus_Emulation_Modes.pdf)
//   - [FTDI-AN_113]: Interfacing FT2232H Hi-Speed Devices To I2C Bus (https://ftdichip.com/wp-content/uploads/2020/08/AN_113_FTDI_Hi_Speed_USB_To_I2C_Example.pdf)
//   - [FTDI-AN_329]: User Guide For LibFT4222 (https://ftdichip.com/wp-content/uploads/2020/08/AN_329_User_Guide_for_LibFT4222.pdf)
//
// SPI Flash
//   - [W25Q128]: W25Q128JV-DTR Winbond Serial Flash Memory (https://www.winbond.com/resource-files/W25Q128JV_DTR%20RevD%2012232024%20Plus.pdf)
package regflash
