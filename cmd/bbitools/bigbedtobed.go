package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghuls/bigtools/bbi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "bigbedtobed <in.bb> <out.bed>",
		Short: "Dump a BigBed's records as BED",
		Args:  cobra.ExactArgs(2),
		RunE:  runBigBedToBed,
	}
	cmd.Flags().StringVar(&bb2bedChrom, "chrom", "", "restrict output to this chromosome")
	cmd.Flags().Uint32Var(&bb2bedStart, "start", 0, "restrict output to records ending after this base (requires --chrom)")
	cmd.Flags().Uint32Var(&bb2bedEnd, "end", 0, "restrict output to records starting before this base (requires --chrom)")
	rootCmd.AddCommand(cmd)
}

var (
	bb2bedChrom string
	bb2bedStart uint32
	bb2bedEnd   uint32
)

func runBigBedToBed(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	rd, err := bbi.Open(in, bbi.TypeBigBed)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	chroms := rd.Chroms()
	if bb2bedChrom != "" {
		end := bb2bedEnd
		if end == 0 {
			for _, c := range chroms {
				if c.Name == bb2bedChrom {
					end = c.Length
				}
			}
		}
		if err := dumpBedChrom(rd, w, bb2bedChrom, bb2bedStart, end); err != nil {
			return err
		}
	} else {
		for _, c := range chroms {
			if err := dumpBedChrom(rd, w, c.Name, 0, c.Length); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}

func dumpBedChrom(rd *bbi.Reader, w *bufio.Writer, chrom string, start, end uint32) error {
	entries, err := rd.BedEntries(chrom, start, end)
	if err != nil {
		return fmt.Errorf("querying %s:%d-%d: %w", chrom, start, end, err)
	}
	for _, e := range entries {
		if _, err := w.WriteString(bbi.WriteBedLine(chrom, e)); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}
