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
		Use:   "bigwigtobedgraph <in.bw> <out.bedGraph>",
		Short: "Dump a BigWig's records as bedGraph",
		Args:  cobra.ExactArgs(2),
		RunE:  runBigWigToBedGraph,
	}
	cmd.Flags().StringVar(&bw2bgChrom, "chrom", "", "restrict output to this chromosome")
	cmd.Flags().Uint32Var(&bw2bgStart, "start", 0, "restrict output to records ending after this base (requires --chrom)")
	cmd.Flags().Uint32Var(&bw2bgEnd, "end", 0, "restrict output to records starting before this base (requires --chrom)")
	rootCmd.AddCommand(cmd)
}

var (
	bw2bgChrom string
	bw2bgStart uint32
	bw2bgEnd   uint32
)

func runBigWigToBedGraph(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	rd, err := bbi.Open(in, bbi.TypeBigWig)
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
	if bw2bgChrom != "" {
		end := bw2bgEnd
		if end == 0 {
			for _, c := range chroms {
				if c.Name == bw2bgChrom {
					end = c.Length
				}
			}
		}
		if err := dumpBedGraphChrom(rd, w, bw2bgChrom, bw2bgStart, end); err != nil {
			return err
		}
	} else {
		for _, c := range chroms {
			if err := dumpBedGraphChrom(rd, w, c.Name, 0, c.Length); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}

func dumpBedGraphChrom(rd *bbi.Reader, w *bufio.Writer, chrom string, start, end uint32) error {
	values, err := rd.Values(chrom, start, end)
	if err != nil {
		return fmt.Errorf("querying %s:%d-%d: %w", chrom, start, end, err)
	}
	for _, v := range values {
		if _, err := w.WriteString(bbi.WriteBedGraphLine(chrom, v)); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}
