package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/gousb"
)

const vendorFTDI = 0x0403

var ftdiProducts = map[gousb.ID]string{
	0x6010: "FT2232H",
	0x6011: "FT4232H",
	0x6014: "FT232H",
	0x601C: "FT4222H",
}

func listCommand(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var all bool
	fs.BoolVar(&all, "a", false, "list every USB device, not only FTDI adapters")
	fs.Parse(args)

	ctx := gousb.NewContext()
	defer ctx.Close()

	// Return true to keep the device open for the string descriptors.
	devs, err := ctx.OpenDevices(func(d *gousb.DeviceDesc) bool {
		if d.Vendor != vendorFTDI {
			if all {
				fmt.Printf("%03d:%03d  %s:%s\n", d.Bus, d.Address, d.Vendor, d.Product)
			}
			return false
		}
		return true
	})
	// Devices that could not be opened (usually permissions) are reported
	// in err while the others are still returned.
	if err != nil && len(devs) == 0 {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
	}
	for _, d := range devs {
		name := ftdiProducts[d.Desc.Product]
		if name == "" {
			name = "unknown"
		}
		product, _ := d.Product()
		serial, _ := d.SerialNumber()
		fmt.Printf("%03d:%03d  %s:%s  %-8s %q serial=%q\n",
			d.Desc.Bus, d.Desc.Address, d.Desc.Vendor, d.Desc.Product, name, product, serial)
		d.Close()
	}
}
