package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghuls/bigtools/bbi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chromintersect <in1.bw|bb> <in2.bw|bb> [more...]",
		Short: "Print the chromosomes (and lengths) common to several BBI files",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runChromIntersect,
	}
	rootCmd.AddCommand(cmd)
}

func runChromIntersect(cmd *cobra.Command, args []string) error {
	var readers []*bbi.Reader
	for _, p := range args {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		var magic [4]byte
		if _, err := f.Read(magic[:]); err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		if _, err := f.Seek(0, 0); err != nil {
			return err
		}
		_, ftype, err := bbi.DetectEndianness(magic)
		if err != nil {
			return fmt.Errorf("detecting type of %s: %w", p, err)
		}

		rd, err := bbi.Open(f, ftype)
		if err != nil {
			return fmt.Errorf("opening %s: %w", p, err)
		}
		readers = append(readers, rd)
	}

	chroms, err := bbi.ChromIntersect(readers)
	if err != nil {
		return err
	}
	for _, c := range chroms {
		shared := true
		for _, rd := range readers {
			if _, err := rd.ChromID(c.Name); err != nil {
				shared = false
				break
			}
		}
		if !shared {
			continue
		}
		fmt.Printf("%s\t%d\n", c.Name, c.Length)
	}
	return nil
}
