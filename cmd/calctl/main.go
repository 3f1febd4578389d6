// Command calctl dumps the calibration files measctl loads and prints
// generated calibration file names,
// the conversion-utility counterpart to the teacher's cmd/samoyed-* tools
// (which convert between captured-packet formats rather than calibration
// data, but follow the same single-verb-subcommand CLI shape).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/samoyed-instruments/meascore/calibration"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: calctl dump <file> | calctl name [flags]\n\n")
		pflag.PrintDefaults()
	}
	if len(os.Args) < 2 {
		pflag.Usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "dump":
		runDump(os.Args[2:])
	case "name":
		runName(os.Args[2:])
	default:
		pflag.Usage()
		os.Exit(2)
	}
}

func runDump(args []string) {
	fs := pflag.NewFlagSet("dump", pflag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "calctl dump: missing calibration file path")
		os.Exit(2)
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "calctl:", err)
		os.Exit(1)
	}
	defer f.Close()

	coeffs := make([]calibration.Coeffs, 1024)
	points, startHz, stopHz, err := calibration.ReadFile(f, coeffs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "calctl:", err)
		os.Exit(1)
	}

	fmt.Printf("points=%d start_hz=%.0f stop_hz=%.0f\n", points, startHz, stopHz)
	for i := 0; i < points; i++ {
		c := coeffs[i]
		fmt.Printf("%4d  Ed=%+.6f%+.6fi  Es=%+.6f%+.6fi  Er=%+.6f%+.6fi  Et=%+.6f%+.6fi  Ex=%+.6f%+.6fi\n",
			i, c.Ed.Re, c.Ed.Im, c.Es.Re, c.Es.Im, c.Er.Re, c.Er.Im, c.Et.Re, c.Et.Im, c.Ex.Re, c.Ex.Im)
	}
}

func runName(args []string) {
	fs := pflag.NewFlagSet("name", pflag.ExitOnError)
	pattern := fs.StringP("pattern", "p", "cal-%Y%m%d-%H%M%S.meascal", "strftime pattern for the generated name")
	fs.Parse(args)

	name, err := calibration.FileName(*pattern, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "calctl:", err)
		os.Exit(1)
	}
	fmt.Println(name)
}
