package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/deepteams/yuyv/internal/kernel"
)

type hostInfo struct {
	OS           string   `json:"os"`
	Arch         string   `json:"arch"`
	CPUs         int      `json:"cpus"`
	GOMAXPROCS   int      `json:"gomaxprocs"`
	Features     []string `json:"features"`
	RowConverter string   `json:"row_converter"`
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	info := hostInfo{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		CPUs:         runtime.NumCPU(),
		GOMAXPROCS:   runtime.GOMAXPROCS(0),
		Features:     kernel.Features(),
		RowConverter: kernel.Implementation(),
	}
	if info.Features == nil {
		info.Features = []string{}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	features := strings.Join(info.Features, " ")
	if features == "" {
		features = "(none)"
	}
	fmt.Printf("Platform:      %s/%s\n", info.OS, info.Arch)
	fmt.Printf("CPUs:          %d (GOMAXPROCS %d)\n", info.CPUs, info.GOMAXPROCS)
	fmt.Printf("Features:      %s\n", features)
	fmt.Printf("Row converter: %s\n", info.RowConverter)
	return nil
}
