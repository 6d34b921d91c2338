package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/openmrlab/seqgen/pulseq"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "seqgen",
	Short: "Seqgen generates gold-standard quantitative MRI pulse " +
		"sequences in the Pulseq format.",
	Long: `Seqgen generates gold-standard quantitative MRI pulse sequences ` +
		`in the Pulseq format. Hardware limits default to a conservative ` +
		`scanner profile and can be overridden through SEQGEN_* environment ` +
		`variables or a .env file in the working directory.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// systemFromEnv builds the hardware limits, letting SEQGEN_* environment
// variables override the defaults. A .env file in the working directory
// is loaded first, if present.
func systemFromEnv() pulseq.Opts {
	_ = godotenv.Load()

	sys := pulseq.Default()

	if v, ok := envFloat("SEQGEN_MAX_GRAD_MT_M"); ok {
		sys = sys.WithMaxGrad(v, pulseq.MilliTeslaPerMeter)
	}

	if v, ok := envFloat("SEQGEN_MAX_SLEW_T_M_S"); ok {
		sys = sys.WithMaxSlew(v, pulseq.TeslaPerMeterPerSecond)
	}

	if v, ok := envFloat("SEQGEN_RF_DEAD_TIME"); ok {
		sys = sys.WithRFDeadTime(v)
	}

	if v, ok := envFloat("SEQGEN_RF_RINGDOWN_TIME"); ok {
		sys = sys.WithRFRingdownTime(v)
	}

	if v, ok := envFloat("SEQGEN_ADC_DEAD_TIME"); ok {
		sys = sys.WithADCDeadTime(v)
	}

	return sys
}

func envFloat(name string) (float64, bool) {
	s := os.Getenv(name)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring %s=%q: %s\n", name, s, err)
		return 0, false
	}

	return v, true
}
