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
		Use:   "bigwigvaluesoverbed <in.bw> <regions.bed> <out.bedGraph>",
		Short: "Emit the raw BigWig values overlapping each region of a BED file",
		Args:  cobra.ExactArgs(3),
		RunE:  runBigWigValuesOverBed,
	}
	rootCmd.AddCommand(cmd)
}

func runBigWigValuesOverBed(cmd *cobra.Command, args []string) error {
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

	order, byChrom, err := bbi.ReadBed(bedFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", bedPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	for _, chrom := range order {
		for _, e := range byChrom[chrom] {
			values, err := rd.Values(chrom, e.Start, e.End)
			if err != nil {
				return fmt.Errorf("querying %s:%d-%d: %w", chrom, e.Start, e.End, err)
			}
			for _, v := range values {
				if _, err := w.WriteString(bbi.WriteBedGraphLine(chrom, v)); err != nil {
					return err
				}
				if err := w.WriteByte('\n'); err != nil {
					return err
				}
			}
		}
	}

	return w.Flush()
}
