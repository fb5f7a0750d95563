// Command bbitools wraps the bbi package with one subcommand per tool:
// bedgraphtobigwig, bedtobigbed, bigbedtobed, bigwigtobedgraph,
// bigwigaverageoverbed, bigwigmerge, bigwigvaluesoverbed, bigwiginfo,
// intersect, chromintersect.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "bbitools",
	Short:   "Read, write, and transform BigWig/BigBed (BBI) files",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().IntVar(&nThreads, "nthreads", 6, "worker count for concurrent chromosome processing; no subcommand reads it, each processes chromosomes sequentially")
}

var nThreads int

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bbitools:", err)
		os.Exit(1)
	}
}

// readChromSizes parses a "name\tlength" chrom-sizes file, the external
// collaborator every writer-facing subcommand needs to assign
// ChromInfo.Length.
func readChromSizes(path string) (map[string]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sizes := make(map[string]uint32)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed chrom-sizes line: %q", line)
		}
		length, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed chrom-sizes length %q: %w", fields[1], err)
		}
		sizes[fields[0]] = uint32(length)
	}
	return sizes, scanner.Err()
}
