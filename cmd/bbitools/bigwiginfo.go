package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghuls/bigtools/bbi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "bigwiginfo <in.bw>",
		Short: "Print a BigWig file's header and summary statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  runBigWigInfo,
	}
	rootCmd.AddCommand(cmd)
}

func runBigWigInfo(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	rd, err := bbi.Open(in, bbi.TypeBigWig)
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}

	info := rd.Info()
	fmt.Printf("version: %d\n", info.Version)
	fmt.Printf("zoomLevels: %d\n", info.ZoomLevels)
	fmt.Printf("chromCount: %d\n", info.ChromCount)
	fmt.Printf("compressed: %t\n", info.Compressed)
	fmt.Printf("basesCovered: %d\n", info.Summary.BasesCovered)
	fmt.Printf("min: %g\n", info.Summary.MinVal)
	fmt.Printf("max: %g\n", info.Summary.MaxVal)
	fmt.Printf("mean: %g\n", info.Summary.Mean())
	fmt.Printf("sumData: %g\n", info.Summary.Sum)
	fmt.Printf("sumSquares: %g\n", info.Summary.SumSquares)
	return nil
}
