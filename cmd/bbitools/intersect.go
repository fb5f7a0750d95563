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
		Use:   "intersect <a.bw> <b.bw> <out.bedGraph>",
		Short: "Write the portions of a's signal that overlap b's, restricted to shared chromosomes",
		Args:  cobra.ExactArgs(3),
		RunE:  runIntersect,
	}
	rootCmd.AddCommand(cmd)
}

func runIntersect(cmd *cobra.Command, args []string) error {
	aPath, bPath, outPath := args[0], args[1], args[2]

	aFile, err := os.Open(aPath)
	if err != nil {
		return err
	}
	defer aFile.Close()
	aRd, err := bbi.Open(aFile, bbi.TypeBigWig)
	if err != nil {
		return fmt.Errorf("opening %s: %w", aPath, err)
	}

	bFile, err := os.Open(bPath)
	if err != nil {
		return err
	}
	defer bFile.Close()
	bRd, err := bbi.Open(bFile, bbi.TypeBigWig)
	if err != nil {
		return fmt.Errorf("opening %s: %w", bPath, err)
	}

	shared, err := bbi.ChromIntersect([]*bbi.Reader{aRd, bRd})
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	for _, c := range shared {
		if _, err := aRd.ChromID(c.Name); err != nil {
			continue
		}
		if _, err := bRd.ChromID(c.Name); err != nil {
			continue
		}

		aValues, err := aRd.Values(c.Name, 0, c.Length)
		if err != nil {
			return err
		}
		bValues, err := bRd.Values(c.Name, 0, c.Length)
		if err != nil {
			return err
		}

		for _, v := range bbi.Intersect(aValues, bValues) {
			if _, err := w.WriteString(bbi.WriteBedGraphLine(c.Name, v)); err != nil {
				return err
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}
