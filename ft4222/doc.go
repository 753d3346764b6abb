// Package ft4222 is the native-driver transport: an FTDI FT4222H used through
// its vendor library, which generates I²C and SPI signaling in hardware.
//
// The package only selects the device, picks clock parameters and maps
// vendor status codes to errors. The vendor library is linked with cgo when
// built with the ft4222 tag:
//
//	go build -tags ft4222 ./...
//
// Without it every call fails with StatusNoCGO.
//
// # References:
//
//   - [FTDI-AN_329]: User Guide For LibFT4222 (https://ftdichip.com/wp-content/uploads/2020/08/AN_329_User_Guide_for_LibFT4222.pdf)
//   - [FTDI-DS_FT4222H]: FT4222H USB2.0 to QuadSPI/I2C Bridge IC (https://ftdichip.com/wp-content/uploads/2020/08/DS_FT4222H.pdf)
package ft4222
