package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghuls/bigtools/bbi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "bigwigmerge <out.bw> <in1.bw> <in2.bw> [more.bw...]",
		Short: "Merge several BigWig files' signal into one, summing per-base values",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runBigWigMerge,
	}
	cmd.Flags().Uint32Var(&mergeBlockSize, "blockSize", bbi.DefaultBlockSize, "B+/R-tree block size")
	cmd.Flags().Uint32Var(&mergeItemsPerSlot, "itemsPerSlot", bbi.DefaultItemsPerSlot, "records per data section")
	cmd.Flags().BoolVar(&mergeUncompressed, "unc", false, "do not zlib-compress data blocks")
	rootCmd.AddCommand(cmd)
}

var (
	mergeBlockSize    uint32
	mergeItemsPerSlot uint32
	mergeUncompressed bool
)

func runBigWigMerge(cmd *cobra.Command, args []string) error {
	outPath, inPaths := args[0], args[1:]

	var readers []*bbi.Reader
	for _, p := range inPaths {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		rd, err := bbi.Open(f, bbi.TypeBigWig)
		if err != nil {
			return fmt.Errorf("opening %s: %w", p, err)
		}
		readers = append(readers, rd)
	}

	merged, err := bbi.MergeReaders(readers)
	if err != nil {
		return fmt.Errorf("merging: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	opts := bbi.WriterOptions{
		BlockSize:    mergeBlockSize,
		ItemsPerSlot: mergeItemsPerSlot,
		Compress:     !mergeUncompressed,
	}
	if err := bbi.WriteBigWig(out, opts, merged); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("writing bigwig: %w", err)
	}
	return nil
}
