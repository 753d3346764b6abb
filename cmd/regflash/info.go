package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gentam/regflash"
)

func infoCommand(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	var pins bool
	fs.BoolVar(&pins, "pins", false, "print the pin header")
	fs.Parse(args)

	adapters, err := regflash.Adapters()
	if err != nil {
		fatalf("%v", err)
	}
	for n, a := range adapters {
		if n > 0 {
			fmt.Println()
		}
		writeAdapter(os.Stdout, a, pins)
	}
}

// field is one "name: value" line of the adapter description.
type field struct {
	name, value string
}

// adapterFields describes a, see https://github.com/periph/cmd/tree/main/ftdi-list.
// The power settings come from the EEPROM header and are left out when it is
// too short to hold one.
func adapterFields(a regflash.Adapter) []field {
	fields := []field{
		{"Type", a.Info.Type},
		{"Vendor ID", fmt.Sprintf("%#04x", a.Info.VenID)},
		{"Device ID", fmt.Sprintf("%#04x", a.Info.DevID)},
	}
	ee := a.EEPROM
	if ee == nil {
		return append(fields, field{"EEPROM", "unreadable"})
	}
	fields = append(fields,
		field{"Manufacturer", ee.Manufacturer},
		field{"ManufacturerID", ee.ManufacturerID},
		field{"Desc", ee.Desc},
		field{"Serial", ee.Serial},
	)
	if h := ee.AsHeader(); h != nil {
		fields = append(fields,
			field{"MaxPower", fmt.Sprintf("%dmA", h.MaxPower)},
			field{"SelfPowered", fmt.Sprintf("%x", h.SelfPowered)},
			field{"RemoteWakeup", fmt.Sprintf("%x", h.RemoteWakeup)},
			field{"PullDownEnable", fmt.Sprintf("%x", h.PullDownEnable)},
		)
	}
	return fields
}

func writeAdapter(w io.Writer, a regflash.Adapter, pins bool) {
	for _, f := range adapterFields(a) {
		fmt.Fprintf(w, "%-16s %s\n", f.name+":", f.value)
	}
	if pins {
		for _, p := range a.Pins {
			fmt.Fprintf(w, "%s: %s\n", p, p.Function())
		}
	}
}
