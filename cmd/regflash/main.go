package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/gentam/regflash"
	"github.com/gentam/regflash/bus"
)

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func fatalUsage(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
	regflash <command> [arguments]

Commands:
	list	 list USB adapters
	info	 print FTDI adapter EEPROM and pins
	id	 check the target chip ID
	reg	 read or write one register
	spi	 run one SPI transfer
	erase	 erase the flash
	write	 program a firmware image
	verify	 run the pattern test over the whole flash
	dump	 read the flash to a file

Run "regflash <command> -h" for the command flags.
`)
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}

	args := flag.Args()[1:]
	switch cmd := flag.Arg(0); cmd {
	case "list":
		listCommand(args)
	case "info":
		infoCommand(args)
	case "id":
		idCommand(args)
	case "reg":
		regCommand(args)
	case "spi":
		spiCommand(args)
	case "erase":
		eraseCommand(args)
	case "write":
		writeCommand(args)
	case "verify":
		verifyCommand(args)
	case "dump":
		dumpCommand(args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n", cmd)
		usage()
	}
}

// common holds the adapter and target flags shared by the device commands.
type common struct {
	kind    string
	index   int
	i2cKHz  int
	spiKHz  int
	mode    int
	lsb     bool
	addr    string
	chip    string
	size    int
	verbose bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.kind, "kind", "mpsse", "adapter kind: mpsse or ft4222")
	fs.IntVar(&c.index, "index", 0, "adapter index")
	fs.IntVar(&c.i2cKHz, "i2c", 400, "I2C speed in kHz")
	fs.IntVar(&c.spiKHz, "spi", 1000, "SPI clock in kHz")
	fs.IntVar(&c.mode, "mode", 0, "SPI mode 0-3")
	fs.BoolVar(&c.lsb, "lsb", false, "SPI least significant bit first")
	fs.StringVar(&c.addr, "addr", "0x50", "7-bit target address")
	fs.StringVar(&c.chip, "chip", regflash.DefaultLayout.Name, "chip revision: "+strings.Join(regflash.LayoutNames(), ", "))
	fs.IntVar(&c.size, "size", 0, "flash size in bytes (default: chip size)")
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
}

func (c *common) settings() bus.Settings {
	s := bus.DefaultSettings()
	k, err := bus.ParseKind(c.kind)
	if err != nil {
		fatalUsage("%v", err)
	}
	s.Kind = k
	s.Index = c.index
	s.I2CSpeed = physic.Frequency(c.i2cKHz) * physic.KiloHertz
	s.SPIClock = physic.Frequency(c.spiKHz) * physic.KiloHertz
	if c.mode < 0 || c.mode > 3 {
		fatalUsage("invalid SPI mode %d", c.mode)
	}
	s.SPIMode = spi.Mode(c.mode)
	if c.lsb {
		s.SPIMode |= spi.LSBFirst
	}
	a, err := strconv.ParseUint(c.addr, 0, 7)
	if err != nil {
		fatalUsage("invalid address %q: %v", c.addr, err)
	}
	s.Addr = uint16(a)
	return s
}

// logger returns a zap backed logger and its flush function.
func (c *common) logger() (logr.Logger, func()) {
	cfg := zap.NewProductionConfig()
	if c.verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Encoding = "console"
	z, err := cfg.Build()
	if err != nil {
		fatalf("logger: %v", err)
	}
	return zapr.NewLogger(z), func() { z.Sync() }
}

func (c *common) options() []regflash.Option {
	l, err := regflash.LookupLayout(c.chip)
	if err != nil {
		fatalUsage("%v", err)
	}
	opts := []regflash.Option{regflash.WithLayout(l)}
	if c.size > 0 {
		opts = append(opts, regflash.WithSize(c.size))
	}
	return opts
}

// withDevice opens the device, runs fn and closes the device. Ctrl-C cancels
// the context given to fn.
func (c *common) withDevice(fn func(ctx context.Context, d *regflash.Device) error, opts ...regflash.Option) error {
	log, flush := c.logger()
	defer flush()

	d, err := regflash.Open(c.settings(), log, append(c.options(), opts...)...)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return fn(ctx, d)
}

func printProgress(p regflash.Progress) {
	fmt.Fprintf(os.Stderr, "\r%-8s %d/%d", p.Phase, p.Done, p.Total)
	if p.Done == p.Total {
		fmt.Fprintln(os.Stderr)
	}
}
