package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghuls/bigtools/bbi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "bedtobigbed <in.bed> <chrom.sizes> <out.bb>",
		Short: "Convert a sorted BED file to BigBed",
		Args:  cobra.ExactArgs(3),
		RunE:  runBedToBigBed,
	}
	cmd.Flags().Uint32Var(&bed2bbBlockSize, "blockSize", bbi.DefaultBlockSize, "B+/R-tree block size")
	cmd.Flags().Uint32Var(&bed2bbItemsPerSlot, "itemsPerSlot", bbi.DefaultItemsPerSlot, "records per data section")
	cmd.Flags().BoolVar(&bed2bbUncompressed, "unc", false, "do not zlib-compress data blocks")
	cmd.Flags().Uint16Var(&bed2bbFieldCount, "type", 3, "number of BED fields")
	rootCmd.AddCommand(cmd)
}

var (
	bed2bbBlockSize    uint32
	bed2bbItemsPerSlot uint32
	bed2bbUncompressed bool
	bed2bbFieldCount   uint16
)

func runBedToBigBed(cmd *cobra.Command, args []string) error {
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

	order, byChrom, err := bbi.ReadBed(in)
	if err != nil {
		return fmt.Errorf("reading bed: %w", err)
	}

	chroms := make([]bbi.ChromBedEntries, 0, len(order))
	for _, name := range order {
		length, ok := sizes[name]
		if !ok {
			return fmt.Errorf("chromosome %q not found in %s", name, sizesPath)
		}
		chroms = append(chroms, bbi.ChromBedEntries{
			Chrom:   bbi.ChromInfo{Name: name, Length: length},
			Entries: byChrom[name],
		})
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	opts := bbi.WriterOptions{
		BlockSize:    bed2bbBlockSize,
		ItemsPerSlot: bed2bbItemsPerSlot,
		Compress:     !bed2bbUncompressed,
	}
	if err := bbi.WriteBigBed(out, opts, bed2bbFieldCount, chroms); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("writing bigbed: %w", err)
	}
	return nil
}
