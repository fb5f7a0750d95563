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
		Use:   "bigwigaverageoverbed <in.bw> <regions.bed> <out.tab>",
		Short: "Compute per-region signal statistics from a BigWig",
		Args:  cobra.ExactArgs(3),
		RunE:  runBigWigAverageOverBed,
	}
	rootCmd.AddCommand(cmd)
}

func runBigWigAverageOverBed(cmd *cobra.Command, args []string) error {
	bwPath, bedPath, outPath := args[0], args[1], args[2]

	bwFile, err := os.Open(bwPath)
	if err != nil {
		return err
	}
	defer bwFile.Close()

	rd, err := bbi.Open(bwFile, bbi.TypeBigWig)
	if err != nil {
		return fmt.Errorf("opening %s: %w", bwPath, err)
	}

	bedFile, err := os.Open(bedPath)
	if err != nil {
		return err
	}
	defer bedFile.Close()

	_, byChrom, err := bbi.ReadBed(bedFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", bedPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	for chrom, entries := range byChrom {
		for _, e := range entries {
			name := e.Rest
			if name == "" {
				name = fmt.Sprintf("%s:%d-%d", chrom, e.Start, e.End)
			}
			stats, err := bbi.AverageOverBed(rd, name, chrom, e.Start, e.End)
			if err != nil {
				return fmt.Errorf("averaging %s: %w", name, err)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%g\t%g\t%g\n",
				stats.Name, stats.Size, stats.Covered, stats.Sum, stats.Mean0, stats.Mean)
		}
	}

	return w.Flush()
}
