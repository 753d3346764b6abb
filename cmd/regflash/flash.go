package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/gentam/regflash"
)

func eraseCommand(args []string) {
	fs := flag.NewFlagSet("erase", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Parse(args)

	err := c.withDevice(func(ctx context.Context, d *regflash.Device) error {
		return d.Flash.Erase(ctx)
	}, regflash.WithProgress(printProgress))
	if err != nil {
		fatalf("erase failed: %v", err)
	}
}

func writeCommand(args []string) {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	var (
		c        common
		filename string
		erase    bool
	)
	c.register(fs)
	fs.StringVar(&filename, "f", "", "input file")
	fs.BoolVar(&erase, "e", false, "erase the flash first")
	fs.Parse(args)

	image, err := regflash.LoadImage(filename)
	if err != nil {
		fatalUsage("%v", err)
	}

	err = c.withDevice(func(ctx context.Context, d *regflash.Device) error {
		if erase {
			return d.Flash.EraseProgram(ctx, image)
		}
		return d.Flash.Program(ctx, image)
	}, regflash.WithProgress(printProgress))
	if err != nil {
		fatalf("write failed: %v", err)
	}
}

func verifyCommand(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Parse(args)

	err := c.withDevice(func(ctx context.Context, d *regflash.Device) error {
		return d.Flash.Verify(ctx)
	}, regflash.WithProgress(printProgress))
	if err != nil {
		fatalf("verify failed: %v", err)
	}
}

func dumpCommand(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	var (
		c        common
		prefix   string
		nread    int
		filename string
		hexdump  bool
	)
	c.register(fs)
	fs.StringVar(&prefix, "o", "dump", "output file prefix")
	fs.IntVar(&nread, "n", 0, "number of bytes to read (default: flash size)")
	fs.StringVar(&filename, "f", "", "read as many bytes as this file holds")
	fs.BoolVar(&hexdump, "x", false, "print a hexdump instead of writing a file")
	fs.Parse(args)

	if filename != "" {
		st, err := os.Stat(filename)
		if err != nil {
			fatalf("%v", err)
		}
		nread = int(st.Size())
	}

	err := c.withDevice(func(ctx context.Context, d *regflash.Device) error {
		if hexdump {
			n := nread
			if n <= 0 {
				n = d.Flash.Size()
			}
			b, err := d.Flash.Read(ctx, 0, n)
			if err != nil {
				return err
			}
			fmt.Println(hex.Dump(b))
			return nil
		}
		name, err := d.Flash.Dump(ctx, prefix, nread)
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil
	}, regflash.WithProgress(printProgress))
	if err != nil {
		fatalf("dump failed: %v", err)
	}
}
