package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/gentam/regflash"
)

func idCommand(args []string) {
	fs := flag.NewFlagSet("id", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Parse(args)

	err := c.withDevice(func(ctx context.Context, d *regflash.Device) error {
		id, err := d.Flash.ReadID()
		if err != nil {
			return err
		}
		fmt.Printf("%05X\t%s\n", id, d.Flash.Layout().Name)
		return d.Flash.CheckID(ctx)
	})
	if err != nil {
		fatalf("%v", err)
	}
}

func regCommand(args []string) {
	fs := flag.NewFlagSet("reg", flag.ExitOnError)
	var (
		c     common
		value string
		set   string
		clr   string
	)
	c.register(fs)
	fs.StringVar(&value, "w", "", "value to write")
	fs.StringVar(&set, "set", "", "bits to set")
	fs.StringVar(&clr, "clear", "", "bits to clear")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fatalUsage("usage: regflash reg [flags] <address>")
	}
	reg := parseUint32(fs.Arg(0))

	err := c.withDevice(func(ctx context.Context, d *regflash.Device) error {
		var err error
		switch {
		case value != "":
			err = d.Chip.WriteRegister(reg, parseUint32(value))
		case set != "":
			err = d.Chip.SetBits(reg, parseUint32(set))
		case clr != "":
			err = d.Chip.ClearBits(reg, parseUint32(clr))
		}
		if err != nil {
			return err
		}
		v, err := d.Chip.ReadRegister(reg)
		if err != nil {
			return err
		}
		fmt.Printf("%#08x: %#08x\n", reg, v)
		return nil
	})
	if err != nil {
		fatalf("%v", err)
	}
}

func parseUint32(s string) uint32 {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		fatalUsage("invalid value %q: %v", s, err)
	}
	return uint32(v)
}
