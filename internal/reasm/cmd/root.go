package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"reasm/internal/decode"
	"reasm/internal/logging"
	reasmlog "reasm/internal/reasm/log"
	"reasm/internal/ui/colorize"
)

var rootCmd = &cobra.Command{
	Use:   "reasm <file>",
	Short: "8086 machine-code disassembler",
	Long: `Reasm disassembles raw 8086 machine code into NASM-syntax assembly.
The listing re-assembles byte-for-byte to the original input.`,
	Example: `
# Disassemble a raw binary to stdout
reasm program.bin

# Verify the round trip
reasm program.bin > program.asm && nasm -o check program.asm && cmp check program.bin
  `,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0], cmd.OutOrStdout(), useColor())
	},
}

// run decodes the file at path and writes the listing to out. Colorizing is
// presentation only and must stay off whenever the output is consumed by an
// assembler.
func run(path string, out io.Writer, color bool) error {
	logger := logging.NewLogger()
	defer logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	logger.Debug("read input", "file", path, "bytes", len(data))

	started := time.Now()
	listing, err := decode.Disassemble(data, decode.WithLogger(logger.Logger))
	if err != nil {
		return fmt.Errorf("disassemble %s: %w", path, err)
	}
	logger.Debug("decoded", "file", path, "duration", time.Since(started))

	if color {
		colorized, err := colorize.ColorizeListing(listing)
		if err == nil {
			listing = colorized
		}
	}

	_, err = io.WriteString(out, listing)
	return err
}

// useColor gates highlighting to interactive terminals so piped output is
// byte-exact assembler source.
func useColor() bool {
	return term.IsTerminal(os.Stdout.Fd()) && os.Getenv("REASM_NO_COLOR") == ""
}

func Execute() {
	reasmlog.Setup(logging.IsDebug())

	// Bypass fang when output is being piped
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			fmt.Fprintln(os.Stderr, "reasm:", err)
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
