package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghuls/bigtools/bbi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "bedgraphtobigwig <in.bedGraph> <chrom.sizes> <out.bw>",
		Short: "Convert a sorted bedGraph file to BigWig",
		Args:  cobra.ExactArgs(3),
		RunE:  runBedGraphToBigWig,
	}
	cmd.Flags().Uint32Var(&bg2bwBlockSize, "blockSize", bbi.DefaultBlockSize, "B+/R-tree block size")
	cmd.Flags().Uint32Var(&bg2bwItemsPerSlot, "itemsPerSlot", bbi.DefaultItemsPerSlot, "records per data section")
	cmd.Flags().BoolVar(&bg2bwUncompressed, "unc", false, "do not zlib-compress data blocks")
	rootCmd.AddCommand(cmd)
}

var (
	bg2bwBlockSize    uint32
	bg2bwItemsPerSlot uint32
	bg2bwUncompressed bool
)

func runBedGraphToBigWig(cmd *cobra.Command, args []string) error {
	inPath, sizesPath, outPath := args[0], args[1], args[2]

	sizes, err := readChromSizes(sizesPath)
	if err != nil {
		return fmt.Errorf("reading chrom sizes: %w", err)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	order, byChrom, err := bbi.ReadBedGraph(in)
	if err != nil {
		return fmt.Errorf("reading bedGraph: %w", err)
	}

	chroms := make([]bbi.ChromValues, 0, len(order))
	for _, name := range order {
		length, ok := sizes[name]
		if !ok {
			return fmt.Errorf("chromosome %q not found in %s", name, sizesPath)
		}
		chroms = append(chroms, bbi.ChromValues{
			Chrom:  bbi.ChromInfo{Name: name, Length: length},
			Values: byChrom[name],
		})
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	opts := bbi.WriterOptions{
		BlockSize:    bg2bwBlockSize,
		ItemsPerSlot: bg2bwItemsPerSlot,
		Compress:     !bg2bwUncompressed,
	}
	if err := bbi.WriteBigWig(out, opts, chroms); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("writing bigwig: %w", err)
	}
	return nil
}
