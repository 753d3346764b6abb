package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/gentam/regflash"
)

func spiCommand(args []string) {
	fs := flag.NewFlagSet("spi", flag.ExitOnError)
	var (
		c     common
		write string
		nread int
	)
	c.register(fs)
	fs.StringVar(&write, "w", "", "hex bytes to write")
	fs.IntVar(&nread, "n", 0, "number of bytes to read (default: full duplex with -w)")
	fs.Parse(args)

	w, err := hex.DecodeString(write)
	if err != nil {
		fatalUsage("invalid hex %q: %v", write, err)
	}
	if len(w) == 0 && nread == 0 {
		fatalUsage("-w or -n is required")
	}
	if nread == 0 {
		nread = len(w)
	}

	err = c.withDevice(func(ctx context.Context, d *regflash.Device) error {
		r := make([]byte, nread)
		if err := d.Bus.SPI(w, r); err != nil {
			return err
		}
		fmt.Println(hex.Dump(r))
		return nil
	})
	if err != nil {
		fatalf("%v", err)
	}
}
